package models

const (
	ContextSeparator = "\n\n"

	paperSourceSuffix      = "_paper_pdf"
	transcriptSourceSuffix = "_youtube_trans"
)

var (
	QAPromptTemplate = `You are an expert in summarizing and explaining complex information. Use the provided information from both academic papers and video reviews to answer the user's question comprehensively. Ensure that your answer is clear, concise, and based on the retrieved documents.

Provided Information:
%s

Question:
%s

%s

Answer:
`

	LanguageDirectiveTemplate = "Write the answer in %s."

	TranslatePromptTemplate = `Translate the following text into %s. Keep technical terms, formulas and proper nouns intact. Answer only with the translation and nothing else.

<text>
%s
</text>
`
)

// PaperSourceID returns the index key for an arXiv paper.
func PaperSourceID(arxivID string) string {
	return arxivID + paperSourceSuffix
}

// TranscriptSourceID returns the index key for a video transcript.
func TranscriptSourceID(videoName string) string {
	return videoName + transcriptSourceSuffix
}

var languageNames = map[string]string{
	"en": "English",
	"ko": "Korean",
	"ja": "Japanese",
	"zh": "Chinese",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
}

// LanguageName maps a language code to a name the model understands. Unknown
// codes are passed through.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}
