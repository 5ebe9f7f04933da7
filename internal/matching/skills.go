package matching

// SkillMatch holds the deterministic skill comparison between a candidate's
// skill set and a job's required skills.
type SkillMatch struct {
	// Matched and Missing carry the original-cased required-skill strings,
	// in the order the job listed them.
	Matched []string `json:"matchedSkills"`
	Missing []string `json:"missingSkills"`
	// SkillScore is |matched| / |required| in [0,1]; zero when the job
	// declares no required skills.
	SkillScore float64 `json:"skillScore"`
}

// MatchSkills compares candidate skills against a job's required skills.
// Both sides are normalized before comparison; the output preserves the
// required list's original casing and order. An empty requirement list
// scores zero rather than a full match.
func MatchSkills(candidateSkills, requiredSkills []string) SkillMatch {
	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		have[NormalizeSkill(s)] = struct{}{}
	}

	matched := make([]string, 0, len(requiredSkills))
	missing := make([]string, 0, len(requiredSkills))
	for _, req := range requiredSkills {
		if _, ok := have[NormalizeSkill(req)]; ok {
			matched = append(matched, req)
		} else {
			missing = append(missing, req)
		}
	}

	score := 0.0
	if len(requiredSkills) > 0 {
		score = float64(len(matched)) / float64(len(requiredSkills))
	}

	return SkillMatch{Matched: matched, Missing: missing, SkillScore: score}
}
