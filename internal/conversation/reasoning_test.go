package conversation

import "testing"

func TestSplitReasoning_ThinkTags(t *testing.T) {
	r, f := SplitReasoning("<think>step one\nstep two</think>The answer.")
	if r != "step one\nstep two" {
		t.Errorf("reasoning = %q", r)
	}
	if f != "The answer." {
		t.Errorf("final = %q", f)
	}
}

func TestSplitReasoning_ThinkingTags(t *testing.T) {
	r, f := SplitReasoning("<thinking>hmm</thinking>Done.")
	if r != "hmm" || f != "Done." {
		t.Errorf("got %q / %q", r, f)
	}
}

func TestSplitReasoning_NoTags(t *testing.T) {
	r, f := SplitReasoning("plain answer")
	if r != "" || f != "plain answer" {
		t.Errorf("got %q / %q", r, f)
	}
}

func TestSplitReasoning_MultipleBlocks(t *testing.T) {
	r, _ := SplitReasoning("<think>a</think>mid<think>b</think>end")
	if r != "a\n\nb" {
		t.Errorf("reasoning = %q", r)
	}
}

func TestFormatReasoning(t *testing.T) {
	got := FormatReasoning("why", "what")
	want := "[Chain of Thought]\nwhy\n\n[Final Answer]\nwhat"
	if got != want {
		t.Errorf("got %q", got)
	}
	if FormatReasoning("", "just this") != "just this" {
		t.Error("empty reasoning must pass final through")
	}
}
