package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const article = `<!DOCTYPE html>
<html><head><title>תקנות המזון</title><script>var tracking = 1;</script></head>
<body>
<nav><a href="/">בית</a></nav>
<article>
<h1>תקנות המזון</h1>
<p>כל יצרן מזון חייב להחזיק ברישיון עסק בתוקף ולהציג אותו במקום בולט בעסק.</p>
<p>הרישיון יחודש מדי שנה בהתאם להוראות משרד הבריאות ולאחר ביקורת תברואית.</p>
<p>הפרת תנאי הרישיון עלולה להוביל לקנס או לסגירת העסק עד לתיקון הליקויים.</p>
</article>
</body></html>`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(article))
	}))
	defer srv.Close()

	page, err := New().Fetch(context.Background(), srv.URL+"/regs")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !strings.Contains(page.Text, "כל יצרן מזון חייב להחזיק ברישיון עסק בתוקף") {
		t.Errorf("text missing article body: %q", page.Text)
	}
	if strings.Contains(page.Text, "tracking") {
		t.Error("script content leaked into text")
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := New().Fetch(context.Background(), srv.URL); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want HTTP 404", err)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	for _, u := range []string{"ftp://example.com/x", "::not a url", ""} {
		if _, err := New().Fetch(context.Background(), u); err == nil {
			t.Errorf("Fetch(%q): expected error", u)
		}
	}
}

func TestVisibleText(t *testing.T) {
	doc := `<div>שורה   ראשונה</div><style>p{}</style><p>second <b>line</b></p><script>x()</script>`
	got := tidy(visibleText(doc))
	want := "שורה ראשונה\nsecond line"
	if got != want {
		t.Errorf("visibleText = %q, want %q", got, want)
	}
}

func TestTidy(t *testing.T) {
	if got := tidy("  a \t b \n\n \n c  "); got != "a b\nc" {
		t.Errorf("tidy = %q", got)
	}
}
