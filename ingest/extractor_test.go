package ingest

import (
	"context"
	"errors"
	"testing"

	hebrew "github.com/sameertanveer602-cmyk/Hebrew"
)

type memDocument struct {
	pages  []Page
	failAt int
	closed bool
}

func (d *memDocument) NumPages() int { return len(d.pages) }

func (d *memDocument) Page(n int) (Page, error) {
	if n == d.failAt {
		return Page{}, errors.New("corrupt page")
	}
	return d.pages[n-1], nil
}

func (d *memDocument) Close() error {
	d.closed = true
	return nil
}

type memSource struct {
	doc *memDocument
	err error
}

func (s *memSource) Open(string) (Document, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

func TestExtractOrder(t *testing.T) {
	doc := &memDocument{pages: []Page{
		{Text: "  םולש\n\nplain  ", Tables: [][][]string{{{"A", "B"}, {"1", "2"}}}},
		{Text: "   "},
		{Text: "ףוס", Tables: [][][]string{{}, {{"x"}}}},
	}}
	records, err := NewExtractor(&memSource{doc: doc}).Extract(context.Background(), "doc.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Record{
		{Page: 1, Type: hebrew.ContentText, Content: "שלום\nplain"},
		{Page: 1, Type: hebrew.ContentTable, Content: "| A | B |\n| --- | --- |\n| 1 | 2 |"},
		{Page: 3, Type: hebrew.ContentText, Content: "סוף"},
		{Page: 3, Type: hebrew.ContentTable, Content: "| x |\n| --- |"},
	}
	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(records), len(want), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
	if !doc.closed {
		t.Error("document not closed")
	}
}

func TestExtractPageFailureAborts(t *testing.T) {
	doc := &memDocument{
		pages:  []Page{{Text: "one"}, {Text: "two"}},
		failAt: 2,
	}
	records, err := NewExtractor(&memSource{doc: doc}).Extract(context.Background(), "doc.pdf")
	if err == nil {
		t.Fatal("expected error")
	}
	if records != nil {
		t.Errorf("got partial records %+v", records)
	}
	if !doc.closed {
		t.Error("document not closed after failure")
	}
}

func TestExtractOpenFailure(t *testing.T) {
	src := &memSource{err: ErrEmptyDocument}
	_, err := NewExtractor(src).Extract(context.Background(), "empty.pdf")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Fatalf("err = %v, want ErrEmptyDocument", err)
	}
}

func TestExtractCancelled(t *testing.T) {
	doc := &memDocument{pages: []Page{{Text: "one"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExtractor(&memSource{doc: doc}).Extract(ctx, "doc.pdf"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
