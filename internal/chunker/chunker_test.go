package chunker

import (
	"reflect"
	"testing"
)

func TestSentences_EmptyInput(t *testing.T) {
	if got := Sentences("", DefaultOptions()); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if got := Sentences("  \n\n ", DefaultOptions()); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}

func TestSentences_SplitsOnTerminators(t *testing.T) {
	text := "The deploy runs on Fridays. Did it pass? Yes it passed!"
	got := Texts(Sentences(text, DefaultOptions()))
	want := []string{"The deploy runs on Fridays.", "Did it pass?", "Yes it passed!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSentences_KeepsDecimals(t *testing.T) {
	got := Texts(Sentences("Pi is roughly 3.14 in most uses. Good enough.", DefaultOptions()))
	want := []string{"Pi is roughly 3.14 in most uses.", "Good enough."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSentences_FullWidthTerminators(t *testing.T) {
	text := "我在图书馆学习机器学习。这本书很有意思！你读过这本书吗？"
	got := Texts(Sentences(text, DefaultOptions()))
	want := []string{"我在图书馆学习机器学习。", "这本书很有意思！", "你读过这本书吗？"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSentences_DropsShortFragments(t *testing.T) {
	got := Texts(Sentences("Ok. Sure! The build is green again.\nyes\n", DefaultOptions()))
	want := []string{"The build is green again."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSentences_NewlinesSplitAndTrackLines(t *testing.T) {
	text := "first line without stop\n\n  second line here\nthird one. fourth sentence"
	got := Sentences(text, DefaultOptions())
	want := []Sentence{
		{Text: "first line without stop", Line: 1},
		{Text: "second line here", Line: 3},
		{Text: "third one.", Line: 4},
		{Text: "fourth sentence", Line: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSentences_CustomMinRunes(t *testing.T) {
	got := Texts(Sentences("tiny. a longer sentence.", Options{MinRunes: 10}))
	want := []string{"a longer sentence."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
