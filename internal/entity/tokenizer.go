package entity

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// BERT special token strings.
const (
	tokenCLS = "[CLS]"
	tokenSEP = "[SEP]"
	tokenUNK = "[UNK]"
	tokenPAD = "[PAD]"
)

const maxWordRunes = 100

// Token is one word piece with the byte span of text it came from.
type Token struct {
	ID    int64
	Start int
	End   int
	// Subword marks a "##" continuation of the previous token.
	Subword bool
}

// WordPiece is a greedy longest-match-first BERT tokenizer that keeps source offsets.
type WordPiece struct {
	vocab     map[string]int64
	lowercase bool
	cls, sep  int64
	unk, pad  int64
}

// LoadVocab reads a vocab.txt file with one token per line; the line number is the ID.
func LoadVocab(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vocab: %w", err)
	}
	defer f.Close()

	vocab := make(map[string]int64)
	sc := bufio.NewScanner(f)
	var id int64
	for sc.Scan() {
		vocab[strings.TrimRight(sc.Text(), "\r")] = id
		id++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vocab: %w", err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocab %s is empty", path)
	}
	return vocab, nil
}

// NewWordPiece builds a tokenizer over vocab. Missing special tokens fall back to the
// conventional bert-base IDs.
func NewWordPiece(vocab map[string]int64, lowercase bool) *WordPiece {
	lookup := func(tok string, def int64) int64 {
		if id, ok := vocab[tok]; ok {
			return id
		}
		return def
	}
	return &WordPiece{
		vocab:     vocab,
		lowercase: lowercase,
		cls:       lookup(tokenCLS, 101),
		sep:       lookup(tokenSEP, 102),
		unk:       lookup(tokenUNK, 100),
		pad:       lookup(tokenPAD, 0),
	}
}

// Tokenize splits text into word pieces. Words are runs of letters and digits; every
// other non-space rune is a word of its own.
func (w *WordPiece) Tokenize(text string) []Token {
	var tokens []Token
	for _, span := range basicSplit(text) {
		tokens = append(tokens, w.pieces(text, span[0], span[1])...)
	}
	return tokens
}

func (w *WordPiece) pieces(text string, start, end int) []Token {
	word := text[start:end]
	if utf8.RuneCountInString(word) > maxWordRunes {
		return []Token{{ID: w.unk, Start: start, End: end}}
	}

	var out []Token
	pos := 0
	for pos < len(word) {
		found := false
		for stop := len(word); stop > pos; {
			piece := w.normalize(word[pos:stop])
			if pos > 0 {
				piece = "##" + piece
			}
			if id, ok := w.vocab[piece]; ok {
				out = append(out, Token{ID: id, Start: start + pos, End: start + stop, Subword: pos > 0})
				pos = stop
				found = true
				break
			}
			_, size := utf8.DecodeLastRuneInString(word[pos:stop])
			stop -= size
		}
		if !found {
			return []Token{{ID: w.unk, Start: start, End: end}}
		}
	}
	return out
}

// normalize applies the uncased-model transform: lower case with accents stripped.
func (w *WordPiece) normalize(s string) string {
	if !w.lowercase {
		return s
	}
	decomposed := norm.NFD.String(strings.ToLower(s))
	return strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, decomposed)
}

// Encode lays tokens out as a single [CLS] ... [SEP] sequence padded to maxTokens.
// At most maxTokens-2 tokens are used.
func (w *WordPiece) Encode(tokens []Token, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)
	for i := range inputIDs {
		inputIDs[i] = w.pad
	}
	if len(tokens) > maxTokens-2 {
		tokens = tokens[:maxTokens-2]
	}

	inputIDs[0] = w.cls
	attentionMask[0] = 1
	for i, t := range tokens {
		inputIDs[i+1] = t.ID
		attentionMask[i+1] = 1
	}
	last := len(tokens) + 1
	inputIDs[last] = w.sep
	attentionMask[last] = 1
	return inputIDs, attentionMask, tokenTypeIDs
}

// basicSplit returns the byte spans of words and standalone punctuation in text.
func basicSplit(text string) [][2]int {
	var spans [][2]int
	start := -1
	for i, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r):
			if start < 0 {
				start = i
			}
		default:
			if start >= 0 {
				spans = append(spans, [2]int{start, i})
				start = -1
			}
			if !unicode.IsSpace(r) && unicode.IsGraphic(r) {
				spans = append(spans, [2]int{i, i + utf8.RuneLen(r)})
			}
		}
	}
	if start >= 0 {
		spans = append(spans, [2]int{start, len(text)})
	}
	return spans
}
