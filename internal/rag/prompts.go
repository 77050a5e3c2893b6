package rag

// Intent questions steer retrieval toward the right clauses; intent prompts
// steer the model's rendering of whatever came back.

const (
	obligationsQuestion = "obligations duties responsibilities of the parties payment delivery performance"
	terminationQuestion = "termination cancellation expiry notice period breach remedies"
	summaryQuestion     = "parties purpose term payment obligations termination governing law"
)

const answerPrompt = "Using only the excerpts below, answer the question.%s\n\n" +
	"Excerpts:\n%s\n\nQuestion: %s"

const summaryPrompt = "Using only the excerpts below, write a concise summary covering: the parties, " +
	"the purpose of the agreement, key obligations, payment terms if any, and termination conditions.\n\n" +
	"Excerpts:\n%s"

const obligationsPrompt = "Using only the excerpts below, list every obligation imposed on each party. " +
	"Group obligations by party and name the source document for each.\n\nExcerpts:\n%s"

const terminationPrompt = "Using only the excerpts below, describe the termination provisions: " +
	"who may terminate, on what grounds, with what notice, and what follows termination.\n\nExcerpts:\n%s"

const explainClausePrompt = "Using only the excerpts below, explain the %q clause in plain language: " +
	"what it requires, who it binds, and its practical effect.\n\nExcerpts:\n%s"

const comparePrompt = "Compare the two sets of excerpts below with respect to this question: %s\n\n" +
	"Excerpts from %s:\n%s\n\nExcerpts from %s:\n%s\n\n" +
	"Describe the key similarities and differences. Cite the source for every point. " +
	"If one side does not address the question, say so explicitly."
