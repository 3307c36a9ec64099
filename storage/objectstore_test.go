package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaledURL(t *testing.T) {
	url := "http://media.local/videos/raw/abc.mp4"
	assert.Equal(t, url+"?tr=h%3A480", ScaledURL(url, 480))
}

func TestScaledURLKeepsExistingQuery(t *testing.T) {
	got := ScaledURL("http://media.local/v.mp4?sig=x", 480)
	assert.Contains(t, got, "sig=x")
	assert.Contains(t, got, "tr=h%3A480")
}

func TestScaledURLInvalidHeight(t *testing.T) {
	url := "http://media.local/v.mp4"
	assert.Equal(t, url, ScaledURL(url, 0))
}
