package summarize

// chunkText splits content into size-character windows, the last one
// possibly shorter. Never splits inside a multi-byte rune boundary in a way
// that would corrupt UTF-8: splitting on a byte index that lands mid-rune is
// avoided by walking rune boundaries instead of raw byte slicing.
func chunkText(content string, size int) []string {
	if size <= 0 {
		size = len(content)
		if size == 0 {
			return nil
		}
	}
	runes := []rune(content)
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
	}
	return chunks
}
