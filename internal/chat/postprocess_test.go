package chat

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatd/internal/manager"
)

func completion(text string, tokens int) manager.Completion {
	return manager.Completion{
		Choices: []manager.Choice{{Text: text}},
		Usage:   &manager.Usage{CompletionTokens: tokens},
	}
}

func TestCleanText(t *testing.T) {
	cases := map[string]string{
		" 4 [/INST]":                       "4",
		"prompt [/INST] The answer is 4.":  "The answer is 4.",
		"a [/INST] b [/INST] c":            "c",
		"<s> Hello</s>":                    "Hello",
		"line1\n\n\nline2\n":               "line1\nline2",
		"":                                 "",
		"[/INST]":                          "",
		"answer [/INST]</s>":               "answer",
		"   plain text without markers   ": "plain text without markers",
	}
	for in, want := range cases {
		assert.Equal(t, want, CleanText(in), "input %q", in)
	}
}

func TestPostprocess(t *testing.T) {
	resp, err := Postprocess(completion(" 4 [/INST]", 3), 420*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "4", resp.Response)
	assert.Equal(t, 3, resp.TokensUsed)
	assert.Equal(t, 0.42, resp.ProcessingTime)
	assert.Equal(t, 7.1, resp.TokensPerSec)
}

func TestPostprocessTinyElapsed(t *testing.T) {
	for _, d := range []time.Duration{0, time.Millisecond, -time.Second} {
		resp, err := Postprocess(completion("x", 3), d)
		require.NoError(t, err)
		assert.Equal(t, 0.0, resp.ProcessingTime)
		assert.Equal(t, 0.0, resp.TokensPerSec)
		assert.False(t, math.IsNaN(resp.TokensPerSec) || math.IsInf(resp.TokensPerSec, 0))
	}
}

func TestPostprocessMalformed(t *testing.T) {
	_, err := Postprocess(manager.Completion{Usage: &manager.Usage{}}, time.Second)
	assert.Error(t, err)
	_, err = Postprocess(manager.Completion{Choices: []manager.Choice{{Text: "x"}}}, time.Second)
	assert.Error(t, err)
}
