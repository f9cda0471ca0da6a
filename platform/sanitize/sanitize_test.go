package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextStripsMarkupAndCollapsesSpaces(t *testing.T) {
	assert.Equal(t, "Dana Levi", Text("  <b>Dana</b>   Levi "))
	assert.Equal(t, "alert(1)", Text("&lt;script&gt;alert(1)&lt;/script&gt;"))
}

func TestMessageKeepsLineBreaksAndTokens(t *testing.T) {
	in := "Hi {first_name},\n<i>new</i>  listing in {neighborhood}"
	assert.Equal(t, "Hi {first_name},\nnew listing in {neighborhood}", Message(in))
}

func TestTextPtrNil(t *testing.T) {
	assert.Nil(t, TextPtr(nil))
}
