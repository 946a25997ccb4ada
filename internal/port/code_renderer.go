package port

type CodeRenderer interface {
	// Render turns a payload string into image bytes; output depends only on the input
	Render(payload string) ([]byte, error)
}
