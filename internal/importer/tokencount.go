package importer

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/memoproj/memo/internal/logging"
)

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// CountTokens returns a best-effort cl100k_base token count for text,
// used only for informational reporting after an import (the
// chunking window itself runs on a fixed chars-per-token approximation
// and never depends on this count). Returns 0 if the encoder fails to
// load.
func CountTokens(text string) int {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			logging.Warn("importer: tiktoken encoder unavailable, token counts will read 0", "err", err)
			return
		}
		tokenizer = enc
	})
	if tokenizer == nil {
		return 0
	}
	return len(tokenizer.Encode(text, nil, nil))
}
