package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

// Counter tokenizes completion text for debug logging and metrics. It uses
// the o200k_base encoding throughout; the llama and gemini family models the
// proxy fronts have no local tokenizer, and an off-by-a-few count is fine
// for observability.
type Counter struct {
	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewCounter creates a counter. The underlying codec is loaded on first use
// and reused across requests; Counter is safe for concurrent use.
func NewCounter() *Counter {
	return &Counter{}
}

// CountText returns the token count of text.
func (c *Counter) CountText(text string) (int, error) {
	c.once.Do(func() {
		c.codec, c.err = tokenizer.Get(tokenizer.O200kBase)
	})
	if c.err != nil {
		return 0, c.err
	}

	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}
