package extractor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"comment-insights-go/internal/types"
)

var (
	errNoObject       = errors.New("no JSON object found")
	errNoSections     = errors.New("no brands, recommendations or opportunities in output")
	errReportedFailed = errors.New("output reports an error")
)

// Parser turns raw analyzer output into a result. Strict runs first; Recover
// only when Strict fails.
type Parser struct {
	Strict  func(string) (types.Insights, error)
	Recover func(string) (types.Insights, error)
}

// DefaultParser is the strict-then-recover strategy used by every analyzer.
var DefaultParser = Parser{Strict: ParseStrict, Recover: ParseRecover}

// Parse never fails: when no stage succeeds the result is error-tagged and
// carries the raw text.
func (p Parser) Parse(raw string) types.AnalysisResult {
	in, err := p.Strict(raw)
	if err == nil {
		return types.OK(in)
	}
	if p.Recover != nil {
		in, rerr := p.Recover(raw)
		if rerr == nil {
			return types.OK(in)
		}
		err = rerr
	}
	return types.Unparsed(fmt.Sprintf("failed to parse commercial opportunities: %v", err), raw)
}

// ParseStrict decodes the whole text as one report object.
func ParseStrict(raw string) (types.Insights, error) {
	in, err := decodeReport([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return types.Insights{}, &types.ParseError{Stage: "strict", Err: err}
	}
	return in, nil
}

// ParseRecover scans for balanced {...} substrings, in order of their
// opening brace, and decodes the first one that holds a report.
func ParseRecover(raw string) (types.Insights, error) {
	in, err := recoverObject(raw, decodeReport)
	if err != nil {
		return types.Insights{}, &types.ParseError{Stage: "recover", Err: err}
	}
	return in, nil
}

// parseStaged decodes raw as a whole, then falls back to the first
// embedded object that decode accepts.
func parseStaged[T any](raw string, decode func([]byte) (T, error)) (T, error) {
	v, err := decode([]byte(strings.TrimSpace(raw)))
	if err == nil {
		return v, nil
	}
	v, rerr := recoverObject(raw, decode)
	if rerr != nil {
		var zero T
		return zero, &types.ParseError{Stage: "recover", Err: rerr}
	}
	return v, nil
}

// recoverObject tries each balanced object in turn. An object that is
// valid JSON but rejected by decode is skipped whole, so each byte is
// scanned a bounded number of times.
func recoverObject[T any](raw string, decode func([]byte) (T, error)) (T, error) {
	var zero T
	lastErr := errNoObject
	for start := strings.IndexByte(raw, '{'); start >= 0; {
		resume := start + 1
		if end := balancedEnd(raw, start); end > start {
			obj := []byte(raw[start : end+1])
			v, err := decode(obj)
			if err == nil {
				return v, nil
			}
			lastErr = err
			if json.Valid(obj) {
				resume = end + 1
			}
		}
		next := strings.IndexByte(raw[resume:], '{')
		if next < 0 {
			break
		}
		start = resume + next
	}
	return zero, lastErr
}

// balancedEnd returns the index of the brace closing the object opened at
// start, ignoring braces inside string literals, or -1.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

type wireBrand struct {
	Name      string   `json:"name"`
	Category  string   `json:"category"`
	Sentiment string   `json:"sentiment"`
	Mentions  *flexInt `json:"mentions"`
}

type wireRecommendation struct {
	Item         string   `json:"item"`
	Category     string   `json:"category"`
	Quote        string   `json:"quote"`
	Endorsements *flexInt `json:"endorsements"`
}

func decodeReport(data []byte) (types.Insights, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return types.Insights{}, err
	}
	if top == nil {
		return types.Insights{}, errNoObject
	}
	if _, ok := top["error"]; ok {
		return types.Insights{}, errReportedFailed
	}

	out := types.EmptyInsights()
	found := false

	if raw, ok := top["brands"]; ok {
		found = true
		var brands []wireBrand
		if err := decodeList(raw, &brands); err != nil {
			return types.Insights{}, fmt.Errorf("brands: %w", err)
		}
		for _, b := range brands {
			out.Brands = append(out.Brands, types.Brand{
				Name:      b.Name,
				Category:  b.Category,
				Sentiment: strings.ToLower(strings.TrimSpace(b.Sentiment)),
				Mentions:  b.Mentions.orDefault(1),
			})
		}
	}
	if raw, ok := top["recommendations"]; ok {
		found = true
		var recs []wireRecommendation
		if err := decodeList(raw, &recs); err != nil {
			return types.Insights{}, fmt.Errorf("recommendations: %w", err)
		}
		for _, r := range recs {
			out.Recommendations = append(out.Recommendations, types.Recommendation{
				Item:         r.Item,
				Category:     r.Category,
				Quote:        r.Quote,
				Endorsements: r.Endorsements.orDefault(1),
			})
		}
	}
	if raw, ok := top["opportunities"]; ok {
		found = true
		var opps []types.Opportunity
		if err := decodeList(raw, &opps); err != nil {
			return types.Insights{}, fmt.Errorf("opportunities: %w", err)
		}
		out.Opportunities = append(out.Opportunities, opps...)
	}

	if !found {
		return types.Insights{}, errNoSections
	}
	return out, nil
}

// decodeList accepts a JSON array or null.
func decodeList(raw json.RawMessage, dst any) error {
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// maxCount caps counts from model output.
const maxCount = 1_000_000

// flexInt tolerates counts emitted as floats or numeric strings. Values are
// rounded and clamped to 0..maxCount.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("count %q: %w", s, err)
	}
	switch {
	case math.IsNaN(n) || n < 0:
		n = 0
	case n > maxCount:
		n = maxCount
	}
	*f = flexInt(math.Round(n))
	return nil
}

func (f *flexInt) orDefault(def int) int {
	if f == nil {
		return def
	}
	return int(*f)
}
