package sandbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/platapay/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSandbox_FormConverges(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	page, err := s.AddPage(PageConfig{
		Variant:       widget.FormVariant,
		ScriptOrigin:  "https://platapay.ph",
		EmbedOrigin:   "https://forms.platapay.ph",
		InitialHeight: 640,
	})
	require.Nil(t, err)
	require.NotNil(t, page.Embed)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	assert.Nil(t, page.WaitForHeight(ctx, "640px"))

	// The form grows as validation errors are shown, then shrinks.
	page.Watcher.Mutate(850)
	assert.Nil(t, page.WaitForHeight(ctx, "850px"))
	page.Watcher.Mutate(720)
	assert.Nil(t, page.WaitForHeight(ctx, "720px"))
	assert.Equal(t, 1, page.Document.Count("iframe"))
}

func TestSandbox_MapVariant(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	page, err := s.AddPage(PageConfig{
		Variant:       widget.MapVariant,
		ScriptOrigin:  "https://platapay.ph",
		InitialHeight: 480,
	})
	require.Nil(t, err)

	frame := page.Embed.Frame()
	assert.Equal(t, "https://platapay.ph/embed/map", frame.Attr("src"))
	assert.Equal(t, "https://platapay.ph", page.Frame.Origin())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	assert.Nil(t, page.WaitForHeight(ctx, "480px"))
}

func TestSandbox_MissingContainer(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	page, err := s.AddPage(PageConfig{
		Variant:      widget.FormVariant,
		ScriptOrigin: "https://platapay.ph",
		EmbedOrigin:  "https://forms.platapay.ph",
		HostPage:     `<html><body><div id="wrong"></div></body></html>`,
	})
	require.Nil(t, err)

	assert.Nil(t, page.Embed)
	assert.Nil(t, page.Observer)
	assert.Equal(t, 0, page.Document.Count("iframe"))
	assert.Equal(t, "", page.Height())

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*10)
	defer cancel()
	assert.NotNil(t, page.WaitForHeight(ctx, "600px"))
}

func TestSandbox_ManyPages(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	for i := 0; i != 16; i++ {
		v := widget.MapVariant
		if i%2 == 0 {
			v = widget.FormVariant
		}
		page, err := s.AddPage(PageConfig{
			Variant:       v,
			ScriptOrigin:  "https://platapay.ph",
			EmbedOrigin:   "https://forms.platapay.ph",
			InitialHeight: 300,
		})
		require.Nil(t, err)
		page.Watcher.Mutate(300 + i*10)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	assert.Nil(t, s.WaitForHeights(ctx))
	assert.Nil(t, s.Shutdown())
	assert.Equal(t, 0, len(s.Pages()))
}

func TestSandbox_Subscriber(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	resized := make(chan float64, 8)
	page, err := s.AddPage(PageConfig{
		Variant:       widget.FormVariant,
		ScriptOrigin:  "https://platapay.ph",
		EmbedOrigin:   "https://forms.platapay.ph",
		InitialHeight: 610,
		Subscriber: widget.ResizeSubscriberFunc(func(height float64) {
			resized <- height
		}),
	})
	require.Nil(t, err)

	page.Watcher.Mutate(900)
	for _, want := range []float64{610, 900} {
		select {
		case h := <-resized:
			assert.Equal(t, want, h)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for resize to %v", want)
		}
	}
}

func TestSandbox_WaitForHeightTimesOut(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	page, err := s.AddPage(PageConfig{
		Variant:       widget.FormVariant,
		ScriptOrigin:  "https://platapay.ph",
		EmbedOrigin:   "https://forms.platapay.ph",
		InitialHeight: 640,
	})
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*50)
	defer cancel()
	err = page.WaitForHeight(ctx, "9999px")
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestSandbox_WaitForHeightWakesOnResize(t *testing.T) {
	s := New(zap.NewNop())
	defer s.Shutdown()

	page, err := s.AddPage(PageConfig{
		Variant:       widget.FormVariant,
		ScriptOrigin:  "https://platapay.ph",
		EmbedOrigin:   "https://forms.platapay.ph",
		InitialHeight: 640,
	})
	require.Nil(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	waited := make(chan error, 1)
	go func() {
		waited <- page.WaitForHeight(ctx, "910px")
	}()
	page.Watcher.Mutate(700)
	page.Watcher.Mutate(910)

	select {
	case err := <-waited:
		assert.Nil(t, err)
	case <-time.After(time.Second * 5):
		t.Fatal("timed out waiting for height")
	}
}
