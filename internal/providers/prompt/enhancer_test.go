package prompt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStaticEnhance(t *testing.T) {
	e := NewStaticEnhancer()

	got, err := e.Enhance(context.Background(), "a wooden chair", "")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "A Wooden Chair"), "got %q", got)
	require.Contains(t, got, "product photography")

	got, err = e.Enhance(context.Background(), "a mug", "a rustic kitchen table scene")
	require.NoError(t, err)
	require.Contains(t, got, "a rustic kitchen table scene")
}

func TestStaticEnhanceRejectsEmptyPrompt(t *testing.T) {
	e := NewStaticEnhancer()
	_, err := e.Enhance(context.Background(), "   ", "")
	require.Error(t, err)
}

func TestStaticSuggestNegative(t *testing.T) {
	e := NewStaticEnhancer()
	got, err := e.SuggestNegative(context.Background(), "a mug")
	require.NoError(t, err)
	require.Contains(t, got, "blurry")

	_, err = e.SuggestNegative(context.Background(), "")
	require.Error(t, err)
}

func TestCleanModelText(t *testing.T) {
	require.Equal(t, "a prompt", cleanModelText("```\na prompt\n```"))
	require.Equal(t, "a prompt", cleanModelText("  a prompt  "))
	require.Equal(t, "a prompt", cleanModelText("```text\na prompt\n```"))
}
