package businessflow_test

import (
	"testing"

	"github.com/campusforge/placement-pipeline/app/dto"
	businessflow "github.com/campusforge/placement-pipeline/business_flow"
	"github.com/campusforge/placement-pipeline/config"
	"github.com/campusforge/placement-pipeline/models"
	"github.com/campusforge/placement-pipeline/repository"
	testingutil "github.com/campusforge/placement-pipeline/testing"
	"github.com/campusforge/placement-pipeline/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApprovalFlow(testDB *testingutil.TestDB, cfg config.MatchingConfig) businessflow.ApprovalFlow {
	return businessflow.NewApprovalFlow(
		repository.NewStudentRepository(testDB.DB),
		repository.NewJobPostingRepository(testDB.DB),
		repository.NewJobIntelligenceRepository(testDB.DB),
		repository.NewMatchRepository(testDB.DB),
		repository.NewApprovalRepository(testDB.DB),
		testDB.DB,
		cfg,
	)
}

func TestApproveStudentForJob(t *testing.T) {
	testDB, fixtures := setupFlowTest(t)
	metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
	ctx := testingutil.CreateTestContext()

	t.Run("ApprovalIsIdempotent", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		flow := newApprovalFlow(testDB, config.MatchingConfig{})

		student, err := fixtures.CreateTestStudent("go", "sql")
		require.NoError(t, err)
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)

		jobIntelRepo := repository.NewJobIntelligenceRepository(testDB.DB)
		jobs, err := jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		jobID := jobs[0].ID

		_, err = fixtures.CreateTestMatchRun(models.RunTypeManual, run.ID, student.ID, []uint{jobID}, []float64{90})
		require.NoError(t, err)

		req := &dto.ApproveStudentRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobID,
			StudentID: student.ID,
		}

		first, err := flow.ApproveStudentForJob(ctx, req, metadata)
		require.NoError(t, err)
		assert.False(t, first.AlreadyApproved)
		assert.NotZero(t, first.Approval.ID)

		second, err := flow.ApproveStudentForJob(ctx, req, metadata)
		require.NoError(t, err)
		assert.True(t, second.AlreadyApproved)
		assert.Equal(t, first.Approval.ID, second.Approval.ID)
		assert.Equal(t, first.Approval.ApprovedAt, second.Approval.ApprovedAt)

		// The approval flipped the match state
		matchRepo := repository.NewMatchRepository(testDB.DB)
		matches, err := matchRepo.MatchesByFilter(ctx, models.StudentJobMatchFilter{
			StudentID: utils.ToPtr(student.ID),
			JobSource: utils.ToPtr(models.JobSourceIntelligence),
			JobID:     utils.ToPtr(jobID),
		}, "", 0, 0)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		for _, match := range matches {
			assert.True(t, match.Approved)
			assert.NotNil(t, match.ApprovedAt)
		}
	})

	t.Run("RejectedWithoutMatch", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		flow := newApprovalFlow(testDB, config.MatchingConfig{})

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)

		jobIntelRepo := repository.NewJobIntelligenceRepository(testDB.DB)
		jobs, err := jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)

		_, err = flow.ApproveStudentForJob(ctx, &dto.ApproveStudentRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobs[0].ID,
			StudentID: student.ID,
		}, metadata)
		assert.True(t, businessflow.IsNoMatchForApproval(err))
	})

	t.Run("PreApprovalSkipsMatchRequirement", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		flow := newApprovalFlow(testDB, config.MatchingConfig{AllowPreApproval: true})

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)

		jobIntelRepo := repository.NewJobIntelligenceRepository(testDB.DB)
		jobs, err := jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)

		resp, err := flow.ApproveStudentForJob(ctx, &dto.ApproveStudentRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobs[0].ID,
			StudentID: student.ID,
		}, metadata)
		require.NoError(t, err)
		assert.False(t, resp.AlreadyApproved)
	})

	t.Run("JobPostingApproval", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		flow := newApprovalFlow(testDB, config.MatchingConfig{AllowPreApproval: true})

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)
		posting, err := fixtures.CreateTestJobPosting()
		require.NoError(t, err)

		resp, err := flow.ApproveStudentForJob(ctx, &dto.ApproveStudentRequest{
			JobSource: string(models.JobSourcePosting),
			JobID:     posting.ID,
			StudentID: student.ID,
		}, metadata)
		require.NoError(t, err)
		assert.Equal(t, string(models.JobSourcePosting), resp.Approval.JobSource)
	})

	t.Run("InvalidJobSourceRejected", func(t *testing.T) {
		flow := newApprovalFlow(testDB, config.MatchingConfig{})
		_, err := flow.ApproveStudentForJob(ctx, &dto.ApproveStudentRequest{
			JobSource: "billboard",
			JobID:     1,
			StudentID: 1,
		}, metadata)
		assert.True(t, businessflow.IsInvalidJobSource(err))
	})

	t.Run("UnknownJobRejected", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		flow := newApprovalFlow(testDB, config.MatchingConfig{AllowPreApproval: true})

		student, err := fixtures.CreateTestStudent("go")
		require.NoError(t, err)

		_, err = flow.ApproveStudentForJob(ctx, &dto.ApproveStudentRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     999999,
			StudentID: student.ID,
		}, metadata)
		assert.True(t, businessflow.IsJobNotFound(err))
	})

	t.Run("UnknownStudentRejected", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())
		flow := newApprovalFlow(testDB, config.MatchingConfig{AllowPreApproval: true})

		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)
		jobIntelRepo := repository.NewJobIntelligenceRepository(testDB.DB)
		jobs, err := jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)

		_, err = flow.ApproveStudentForJob(ctx, &dto.ApproveStudentRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobs[0].ID,
			StudentID: 999999,
		}, metadata)
		assert.True(t, businessflow.IsStudentNotFound(err))
	})
}

func TestEligibleStudents(t *testing.T) {
	testDB, fixtures := setupFlowTest(t)
	metadata := businessflow.NewClientMetadata("127.0.0.1", "test-agent")
	ctx := testingutil.CreateTestContext()
	flow := newApprovalFlow(testDB, config.MatchingConfig{})

	// seedEligible creates three students matched against one job with
	// scores 95, 70 and 40, approving the middle one.
	seedEligible := func(t *testing.T) (jobID uint, studentIDs []uint) {
		t.Helper()
		require.NoError(t, testDB.ClearAllTables())

		run, err := fixtures.CreateTestRun(models.RunTypeManual, 1)
		require.NoError(t, err)
		jobIntelRepo := repository.NewJobIntelligenceRepository(testDB.DB)
		jobs, err := jobIntelRepo.JobsByRunID(ctx, run.ID, 0)
		require.NoError(t, err)
		jobID = jobs[0].ID

		scores := []float64{95, 70, 40}
		for _, score := range scores {
			student, err := fixtures.CreateTestStudent("go", "sql")
			require.NoError(t, err)
			studentIDs = append(studentIDs, student.ID)
			_, err = fixtures.CreateTestMatchRun(models.RunTypeManual, run.ID, student.ID, []uint{jobID}, []float64{score})
			require.NoError(t, err)
		}

		_, err = fixtures.CreateTestApproval(studentIDs[1], models.JobSourceIntelligence, jobID)
		require.NoError(t, err)
		require.NoError(t, repository.NewMatchRepository(testDB.DB).MarkApproved(ctx, studentIDs[1], models.JobSourceIntelligence, jobID, utils.UTCNow()))
		return jobID, studentIDs
	}

	t.Run("OrderedByScoreDescending", func(t *testing.T) {
		jobID, studentIDs := seedEligible(t)

		resp, err := flow.EligibleStudents(ctx, &dto.EligibleStudentsRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobID,
		}, metadata)
		require.NoError(t, err)

		require.Len(t, resp.Students, 3)
		assert.Equal(t, studentIDs[0], resp.Students[0].StudentID)
		assert.Equal(t, studentIDs[1], resp.Students[1].StudentID)
		assert.Equal(t, studentIDs[2], resp.Students[2].StudentID)
		assert.Equal(t, jobID, resp.Job.ID)
	})

	t.Run("MaxScoreIsACeiling", func(t *testing.T) {
		jobID, studentIDs := seedEligible(t)

		resp, err := flow.EligibleStudents(ctx, &dto.EligibleStudentsRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobID,
			MaxScore:  utils.ToPtr(75.0),
		}, metadata)
		require.NoError(t, err)

		require.Len(t, resp.Students, 2)
		assert.Equal(t, studentIDs[1], resp.Students[0].StudentID)
		assert.Equal(t, studentIDs[2], resp.Students[1].StudentID)
	})

	t.Run("ApprovedOnlyKeepsApprovedStudents", func(t *testing.T) {
		jobID, studentIDs := seedEligible(t)

		resp, err := flow.EligibleStudents(ctx, &dto.EligibleStudentsRequest{
			JobSource:    string(models.JobSourceIntelligence),
			JobID:        jobID,
			ApprovedOnly: utils.ToPtr(true),
		}, metadata)
		require.NoError(t, err)

		require.Len(t, resp.Students, 1)
		assert.Equal(t, studentIDs[1], resp.Students[0].StudentID)
		assert.True(t, resp.Students[0].Approved)
		assert.NotNil(t, resp.Students[0].ApprovedAt)
	})

	t.Run("LimitCapsTheListing", func(t *testing.T) {
		jobID, studentIDs := seedEligible(t)

		resp, err := flow.EligibleStudents(ctx, &dto.EligibleStudentsRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     jobID,
			Limit:     utils.ToPtr(1),
		}, metadata)
		require.NoError(t, err)

		require.Len(t, resp.Students, 1)
		assert.Equal(t, studentIDs[0], resp.Students[0].StudentID)
	})

	t.Run("UnknownJobRejected", func(t *testing.T) {
		require.NoError(t, testDB.ClearAllTables())

		_, err := flow.EligibleStudents(ctx, &dto.EligibleStudentsRequest{
			JobSource: string(models.JobSourceIntelligence),
			JobID:     999999,
		}, metadata)
		assert.True(t, businessflow.IsJobNotFound(err))
	})
}
