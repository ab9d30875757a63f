package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReply_PostCountFollowsPrompt(t *testing.T) {
	out := reply("You are a social media expert", "Based on the following text, generate 3 different Twitter posts that are thread in nature.")
	if got := len(strings.Split(out, "\n\n")); got != 3 {
		t.Fatalf("expected 3 blank-line separated posts, got %d:\n%s", got, out)
	}
}

func TestReply_TaskPrompts(t *testing.T) {
	if got := reply("You are an expert at creating detailed image generation prompts", "x"); !strings.Contains(got, "no text") {
		t.Fatalf("image prompt reply: %q", got)
	}
	if got := reply("Clean up and format this audio transcription", "  um hello  "); got != "um hello" {
		t.Fatalf("cleanup should echo the transcript, got %q", got)
	}
	if got := reply("Provide a concise summary of the following article", "x"); !strings.Contains(got, "summary") {
		t.Fatalf("summary reply: %q", got)
	}
}

func TestText_MultimodalParts(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","text":"describe"},{"type":"image_url","image_url":{"url":"data:image/png;base64,AA=="}}]`)
	if got := text(raw); got != "describe" {
		t.Fatalf("text()=%q", got)
	}
	if got := text(json.RawMessage(`"plain"`)); got != "plain" {
		t.Fatalf("text()=%q", got)
	}
}
