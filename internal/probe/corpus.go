package probe

// DefaultCorpus mixes questions that match the sample knowledge base with
// ones that should fall through to suggestions.
var DefaultCorpus = []string{
	"How do I apply?",
	"What is the tuition fee?",
	"Which documents do I need for admission?",
	"What programs do you offer?",
	"How can I contact admissions by email?",
	"Are scholarships available?",
	"What degrees and majors can I study?",
	"What is the registration deadline?",
	"weekend buses",
	"Is there a swimming pool?",
}

// question returns the i-th question of a run.
func question(corpus []string, i int) string {
	return corpus[i%len(corpus)]
}
