package extractor

import (
	"iter"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"
)

// anchorRE matches the timestamp opening every log block, such as "[2024/01/15 08:00:00]".
var anchorRE = regexp.MustCompile(`\[\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2}]`)

const (
	// blockTrailerLen is the number of characters dropped from the end of a block before
	// the strict decode. Captures end every block with a two character terminator.
	blockTrailerLen = 2

	// truncationRepair closes a payload cut in the middle of a string value.
	// It is a best effort patch for that single truncation pattern and does not recover others.
	truncationRepair = `"}`
)

// FromLogBlocks returns the records found in log block text.
//
// Each block runs from one anchor to the next one, or to the end of text. Its payload starts at
// the first '{' after the anchor. The payload minus the block trailer is decoded first. If that
// fails, the whole payload followed by truncationRepair is decoded. Payloads failing both attempts
// are logged with their content and skipped.
func FromLogBlocks(text string, log *slog.Logger) iter.Seq[Record] {
	if log == nil {
		log = slog.Default()
	}

	return func(yield func(Record) bool) {
		for i, payload := range blockPayloads(text) {
			rec, ok := decodeBlock(payload)
			if !ok {
				log.Warn("Could not decode JSON fragment, skipping it", "block", i, "fragment", payload+truncationRepair)
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// blockPayloads yields, for every block holding a '{', its index and the text from that brace
// to the end of the block.
func blockPayloads(text string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		locs := anchorRE.FindAllStringIndex(text, -1)
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}

			block := text[loc[0]:end]
			brace := strings.IndexByte(block, '{')
			if brace == -1 {
				continue
			}
			if !yield(i, block[brace:]) {
				return
			}
		}
	}
}

func decodeBlock(payload string) (Record, bool) {
	if rec, err := Decode(dropLastRunes(payload, blockTrailerLen)); err == nil {
		return rec, true
	}

	rec, err := Decode(payload + truncationRepair)
	if err != nil {
		return nil, false
	}
	return rec, true
}

func dropLastRunes(s string, n int) string {
	for range n {
		if s == "" {
			return ""
		}
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
