package domain

// Redacted returns a copy of the quiz with every answer key removed.
// Blanks keep only their points and case-sensitivity flag.
func (q Quiz) Redacted() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.CorrectAnswer = nil
		question.PossibleAnswers = nil
		if question.Blanks != nil {
			blanks := make([]Blank, len(question.Blanks))
			for j, b := range question.Blanks {
				blanks[j] = Blank{Points: b.Points, CaseSensitive: b.CaseSensitive}
			}
			question.Blanks = blanks
		}
		if question.Choices != nil {
			question.Choices = append([]string(nil), question.Choices...)
		}
		out.Questions[i] = question
	}
	return out
}

// ForViewer returns the quiz as the given role may see it.
func (q Quiz) ForViewer(role Role) Quiz {
	if role.Privileged() {
		return q
	}
	return q.Redacted()
}
