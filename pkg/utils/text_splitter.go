package utils

import "unicode"

// SplitText splits a long string into chunks of approximately 'chunkSize' characters
// with an 'overlap' carried between neighbours so passage boundaries keep context.
// Chunks prefer to break on whitespace near the boundary instead of mid-word.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	minStep := chunkSize - overlap
	if minStep <= 0 {
		minStep = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; {
		end := i + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[i:totalLen]))
			break
		}
		end = backtrackToBoundary(runes, i, end)

		chunks = append(chunks, string(runes[i:end]))

		// Next chunk starts 'overlap' runes before the actual end, so a
		// backtracked boundary never leaves a gap between neighbours.
		next := end - overlap
		if next <= i {
			next = i + minStep
		}
		i = next
	}

	return chunks
}

// backtrackToBoundary walks back from 'end' looking for whitespace so the chunk
// does not cut a word in half. It gives up after a quarter of the chunk and
// returns the original cut point rather than losing data.
func backtrackToBoundary(runes []rune, start, end int) int {
	limit := end - (end-start)/4
	for j := end; j > limit; j-- {
		if unicode.IsSpace(runes[j-1]) {
			return j
		}
	}
	return end
}
