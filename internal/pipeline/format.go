package pipeline

import (
	"fmt"
	"strings"

	"github.com/chirplab/chirp/internal/xapi"
)

// postDateLayout renders 2024-01-02 as 1/2/2024.
const postDateLayout = "1/2/2006"

// FormatPost renders a post as one line: @handle (date): text. The
// same rendering feeds both the terminal and the synthesis context.
func FormatPost(post xapi.Post) string {
	text := strings.ReplaceAll(post.Text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return fmt.Sprintf("@%s (%s): %s", post.Username, post.CreatedAt.Format(postDateLayout), text)
}
