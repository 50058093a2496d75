package services

import (
	"encoding/json"

	"github.com/campusforge/placement-pipeline/utils"
)

// StudentProfile is the scoring view of a student
type StudentProfile struct {
	StudentID uint
	Skills    []string
	ATSScore  *float64
}

// JobProfile is the scoring view of a job, independent of which table it came from
type JobProfile struct {
	Title          string
	CompanyName    string
	Source         string
	ApplyLink      string
	RequiredSkills []string
	Description    string
}

// MatchScore is the scoring engine's output for one (student, job) pair.
// MatchedSkills and MissingSkills partition the job's required-skill set:
// disjoint, union equals the normalized required skills.
type MatchScore struct {
	MatchScore      float64
	SkillMatchScore *float64
	ATSScore        *float64
	MatchedSkills   []string
	MissingSkills   []string
	Reasoning       json.RawMessage
}

// ScoringEngine computes job fit scores. The default implementation runs
// in-process; the interface exists so the external scoring service can be
// dropped in without touching the orchestrator.
type ScoringEngine interface {
	// ScoreJob computes a student-independent fit score for a job, higher is
	// better, plus an opaque breakdown for audit.
	ScoreJob(job JobProfile) (float64, json.RawMessage)

	// ScoreMatch computes the composite score for one (student, job) pair.
	// Deterministic: identical inputs always produce identical output.
	ScoreMatch(student StudentProfile, job JobProfile) MatchScore
}

// SkillOverlapEngine is the default scoring engine. The composite score is a
// weighted blend of skill overlap and the student's ATS score.
type SkillOverlapEngine struct {
	SkillWeight float64
	ATSWeight   float64
}

// NewScoringEngine creates the default scoring engine
func NewScoringEngine() *SkillOverlapEngine {
	return &SkillOverlapEngine{
		SkillWeight: utils.SkillScoreWeight,
		ATSWeight:   utils.ATSScoreWeight,
	}
}

type jobScoreBreakdown struct {
	Method        string  `json:"method"`
	Completeness  float64 `json:"completeness"`
	SkillCoverage float64 `json:"skill_coverage"`
	SourceWeight  float64 `json:"source_weight"`
}

// sourceWeights biases the job fit score by board reliability
var sourceWeights = map[string]float64{
	"linkedin":  1.0,
	"indeed":    0.95,
	"glassdoor": 0.9,
	"naukri":    0.85,
}

// ScoreJob scores a job on record completeness and source quality, scaled to
// 0..100. Student-independent by contract.
func (e *SkillOverlapEngine) ScoreJob(job JobProfile) (float64, json.RawMessage) {
	completeness := 0.0
	if job.Title != "" {
		completeness += 25
	}
	if job.CompanyName != "" {
		completeness += 20
	}
	if job.ApplyLink != "" {
		completeness += 25
	}
	if job.Description != "" {
		completeness += 10
	}

	skillCoverage := 0.0
	if n := len(utils.NormalizeSkills(job.RequiredSkills)); n > 0 {
		skillCoverage = 20
		if n > 10 {
			// An absurdly long requirement list usually means a low-quality posting
			skillCoverage = 10
		}
	}

	weight, ok := sourceWeights[utils.NormalizeSkill(job.Source)]
	if !ok {
		weight = 0.8
	}

	final := (completeness + skillCoverage) * weight

	breakdown, _ := json.Marshal(jobScoreBreakdown{
		Method:        "completeness_v1",
		Completeness:  completeness,
		SkillCoverage: skillCoverage,
		SourceWeight:  weight,
	})

	return final, breakdown
}

type matchReasoning struct {
	Method          string   `json:"method"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
	SkillMatchScore *float64 `json:"skill_match_score,omitempty"`
	ATSScore        *float64 `json:"ats_score,omitempty"`
	SkillWeight     float64  `json:"skill_weight"`
	ATSWeight       float64  `json:"ats_weight"`
}

// ScoreMatch computes the composite (student, job) score. Skill comparison is
// case-normalized on both sides. When the student has no ATS score the skill
// score stands alone instead of being dragged down by a missing signal.
func (e *SkillOverlapEngine) ScoreMatch(student StudentProfile, job JobProfile) MatchScore {
	required := utils.NormalizeSkills(job.RequiredSkills)
	studentSkills := make(map[string]struct{}, len(student.Skills))
	for _, s := range utils.NormalizeSkills(student.Skills) {
		studentSkills[s] = struct{}{}
	}

	matched := make([]string, 0, len(required))
	missing := make([]string, 0, len(required))
	for _, skill := range required {
		if _, ok := studentSkills[skill]; ok {
			matched = append(matched, skill)
		} else {
			missing = append(missing, skill)
		}
	}

	var skillScore *float64
	if len(required) > 0 {
		skillScore = utils.ToPtr(100 * float64(len(matched)) / float64(len(required)))
	}

	composite := 0.0
	switch {
	case skillScore != nil && student.ATSScore != nil:
		composite = e.SkillWeight**skillScore + e.ATSWeight**student.ATSScore
	case skillScore != nil:
		composite = *skillScore
	case student.ATSScore != nil:
		composite = *student.ATSScore
	}

	reasoning, _ := json.Marshal(matchReasoning{
		Method:          "skill_overlap_v1",
		MatchedSkills:   matched,
		MissingSkills:   missing,
		SkillMatchScore: skillScore,
		ATSScore:        student.ATSScore,
		SkillWeight:     e.SkillWeight,
		ATSWeight:       e.ATSWeight,
	})

	return MatchScore{
		MatchScore:      composite,
		SkillMatchScore: skillScore,
		ATSScore:        student.ATSScore,
		MatchedSkills:   matched,
		MissingSkills:   missing,
		Reasoning:       reasoning,
	}
}
