package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "FIXTURE", "TABLE", "CONNECTION")
	table.AddRow("app/fixture/Articles", "articles", "test")
	table.AddRow("app/fixture/Tags", "tags", "test_tags", "extra")

	if table.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.Len())
	}
	table.Render()

	want := "FIXTURE               TABLE     CONNECTION\n" +
		"────────────────────  ────────  ──────────\n" +
		"app/fixture/Articles  articles  test\n" +
		"app/fixture/Tags      tags      test_tags\n"
	if buf.String() != want {
		t.Errorf("unexpected table output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestMessage_String(t *testing.T) {
	msg := FixtureNotFound("could not find fixture `app.Artcles`", []string{"app/fixture/Articles"}, true).String()

	for _, want := range []string{
		"❌ FIXTURE NOT FOUND: could not find fixture `app.Artcles`",
		"Did you mean: app/fixture/Articles?",
		"→ See all fixtures: conduit fixtures list",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected message to contain %q, got:\n%s", want, msg)
		}
	}
}

func TestMessage_Levels(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"warning", Warning("nothing to insert", true), "⚠️ nothing to insert\n"},
		{"info", Message{Level: LevelInfo, Problem: "3 fixtures", NoColor: true}, "ℹ️ 3 fixtures\n"},
		{"config", ConfigError("no test connection", true), "❌ CONFIGURATION ERROR: no test connection\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.msg.Write(&buf)
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("got %q, want prefix %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "Inserted 2 fixtures", true)

	if buf.String() != "✓ Inserted 2 fixtures\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Articles", "Articles", 0},
		{"Artcles", "Articles", 1},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{
		"app/fixture/Articles",
		"app/fixture/Authors",
		"app/fixture/Comments",
		"conduit/fixture/Articles",
	}

	got := FindSimilar("app/fixture/artcles", candidates)
	if len(got) == 0 || got[0] != "app/fixture/Articles" {
		t.Errorf("expected app/fixture/Articles first, got %v", got)
	}

	if got := FindSimilar("completely/different", candidates); len(got) != 0 {
		t.Errorf("expected no suggestions, got %v", got)
	}
}
