package newsletter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"econews-digest/internal/domain"
	"econews-digest/internal/usecase/newsstore"
)

type stubStore struct {
	days map[string][]domain.NewsItem
}

func (s *stubStore) ReadDay(ctx context.Context, date string) []domain.NewsItem {
	return s.days[date]
}

type stubPipeline struct {
	items  []domain.NewsItem
	called bool
}

func (p *stubPipeline) Run(ctx context.Context) []domain.NewsItem {
	p.called = true
	return p.items
}

type stubGenerator struct {
	fail   bool
	called bool
}

func (g *stubGenerator) GenerateNewsletter(ctx context.Context, items []domain.NewsItem, kind domain.NewsletterKind) (domain.NewsletterContent, error) {
	g.called = true
	if g.fail {
		return domain.NewsletterContent{}, errors.New("генератор недоступен")
	}
	return domain.NewsletterContent{
		Kind:    kind,
		Subject: "Тестовый выпуск",
		Sections: []domain.NewsletterSection{
			{Category: "markets", Headlines: []domain.NewsletterLink{{Title: items[0].Title, URL: items[0].URL}}},
		},
	}, nil
}

func (g *stubGenerator) GenerateDailyDigest(ctx context.Context, items []domain.NewsItem, date string) (domain.DailyDigest, error) {
	g.called = true
	if g.fail {
		return domain.DailyDigest{}, errors.New("генератор недоступен")
	}
	return domain.DailyDigest{Date: date, Overview: "Сводка дня"}, nil
}

type stubMailer struct {
	sent     int
	lastKind domain.NewsletterKind
}

func (m *stubMailer) Send(ctx context.Context, content domain.NewsletterContent, recipients []domain.Subscriber) (domain.SendReport, error) {
	m.sent += len(recipients)
	m.lastKind = content.Kind
	return domain.SendReport{Sent: len(recipients)}, nil
}

type stubSubs struct {
	subs []domain.Subscriber
	err  error
}

func (s *stubSubs) GetConfirmedSubscribers(ctx context.Context) ([]domain.Subscriber, error) {
	return s.subs, s.err
}

func testItems() []domain.NewsItem {
	return []domain.NewsItem{
		{URL: "https://a.com/1", Title: "Inflation cools", Category: "policy", PubDate: time.Now()},
		{URL: "https://b.com/2", Title: "Nasdaq rallies", Category: "markets", PubDate: time.Now()},
	}
}

func testSubs() []domain.Subscriber {
	return []domain.Subscriber{{ID: 1, Email: "a@example.com"}, {ID: 2, Email: "b@example.com"}}
}

func TestSendDailyUsesFallbackWhenGeneratorFails(t *testing.T) {
	today := newsstore.DateOf(time.Now())
	store := &stubStore{days: map[string][]domain.NewsItem{today: testItems()}}
	primary := &stubGenerator{fail: true}
	fallback := &stubGenerator{}
	mailer := &stubMailer{}
	svc := NewService(store, &stubPipeline{}, primary, fallback, mailer, &stubSubs{subs: testSubs()}, zerolog.Nop())

	res := svc.SendDaily(context.Background())
	if !res.Success() {
		t.Fatalf("сбой основного генератора не должен ронять выпуск: %v", res.Err)
	}
	if !fallback.called {
		t.Fatalf("запасной генератор не использован")
	}
	if res.EmailsSent != 2 || mailer.sent != 2 {
		t.Fatalf("выпуск не дошёл до подписчиков: %+v", res)
	}
	if mailer.lastKind != domain.KindDaily {
		t.Fatalf("отправлен выпуск вида %s, ожидали daily", mailer.lastKind)
	}
}

func TestSendDailyEmptyCorpusIsSuccessfulNoop(t *testing.T) {
	store := &stubStore{days: map[string][]domain.NewsItem{}}
	pipe := &stubPipeline{}
	mailer := &stubMailer{}
	svc := NewService(store, pipe, &stubGenerator{}, &stubGenerator{}, mailer, &stubSubs{subs: testSubs()}, zerolog.Nop())

	res := svc.SendDaily(context.Background())
	if !res.Success() {
		t.Fatalf("пустой корпус должен быть успешным no-op: %v", res.Err)
	}
	if !pipe.called {
		t.Fatalf("пустой кэш должен запускать свежий проход пайплайна")
	}
	if res.ItemsProcessed != 0 || mailer.sent != 0 {
		t.Fatalf("без новостей писем быть не должно: %+v", res)
	}
}

func TestSendWeeklyEmptyWindowFallsBackToPipeline(t *testing.T) {
	store := &stubStore{days: map[string][]domain.NewsItem{}}
	pipe := &stubPipeline{items: testItems()}
	mailer := &stubMailer{}
	svc := NewService(store, pipe, &stubGenerator{}, &stubGenerator{}, mailer, &stubSubs{subs: testSubs()}, zerolog.Nop())

	res := svc.SendWeekly(context.Background(), domain.KindWeeklyPreview)
	if !res.Success() {
		t.Fatalf("недельный выпуск: %v", res.Err)
	}
	if !pipe.called {
		t.Fatalf("пустое окно должно запускать свежий проход пайплайна")
	}
	if res.ItemsProcessed != 2 || res.EmailsSent != 2 {
		t.Fatalf("неверный итог: %+v", res)
	}
}

func TestSendWeeklyDedupesAcrossWindow(t *testing.T) {
	today := newsstore.DateOf(time.Now())
	yesterday := newsstore.DateOf(time.Now().AddDate(0, 0, -1))
	shared := domain.NewsItem{URL: "https://a.com/1", Title: "Inflation cools", Category: "policy"}
	store := &stubStore{days: map[string][]domain.NewsItem{
		yesterday: {shared},
		today:     {shared, {URL: "https://b.com/2", Title: "Nasdaq rallies", Category: "markets"}},
	}}
	svc := NewService(store, &stubPipeline{}, &stubGenerator{}, &stubGenerator{}, &stubMailer{}, &stubSubs{subs: testSubs()}, zerolog.Nop())

	res := svc.SendWeekly(context.Background(), domain.KindWeeklyPreview)
	if !res.Success() {
		t.Fatalf("недельный выпуск: %v", res.Err)
	}
	if res.ItemsProcessed != 2 {
		t.Fatalf("повтор URL в окне должен схлопываться: %+v", res)
	}
}

func TestSendIssueBothGeneratorsFail(t *testing.T) {
	today := newsstore.DateOf(time.Now())
	store := &stubStore{days: map[string][]domain.NewsItem{today: testItems()}}
	svc := NewService(store, &stubPipeline{}, &stubGenerator{fail: true}, &stubGenerator{fail: true}, &stubMailer{}, &stubSubs{subs: testSubs()}, zerolog.Nop())

	res := svc.SendDaily(context.Background())
	if res.Success() {
		t.Fatalf("сбой обоих генераторов должен дать ошибку")
	}
}

func TestSendIssueSubscriberRepoError(t *testing.T) {
	today := newsstore.DateOf(time.Now())
	store := &stubStore{days: map[string][]domain.NewsItem{today: testItems()}}
	svc := NewService(store, &stubPipeline{}, &stubGenerator{}, &stubGenerator{}, &stubMailer{}, &stubSubs{err: errors.New("база недоступна")}, zerolog.Nop())

	if res := svc.SendDaily(context.Background()); res.Success() {
		t.Fatalf("недоступная база подписчиков должна дать ошибку")
	}
}

func TestBuildDigestFallsBack(t *testing.T) {
	store := &stubStore{days: map[string][]domain.NewsItem{"2026-08-30": testItems()}}
	fallback := &stubGenerator{}
	svc := NewService(store, &stubPipeline{}, &stubGenerator{fail: true}, fallback, &stubMailer{}, &stubSubs{}, zerolog.Nop())

	digest, err := svc.BuildDigest(context.Background(), "2026-08-30")
	if err != nil {
		t.Fatalf("сводка с запасным генератором: %v", err)
	}
	if !fallback.called || digest.Overview == "" {
		t.Fatalf("запасной генератор не использован: %+v", digest)
	}
}

func TestBuildDigestNoNews(t *testing.T) {
	svc := NewService(&stubStore{days: map[string][]domain.NewsItem{}}, &stubPipeline{}, &stubGenerator{}, &stubGenerator{}, &stubMailer{}, &stubSubs{}, zerolog.Nop())
	if _, err := svc.BuildDigest(context.Background(), "2026-08-30"); !errors.Is(err, ErrNoNews) {
		t.Fatalf("ожидали ErrNoNews, получили %v", err)
	}
}

func TestReviewWindowStartsOnMonday(t *testing.T) {
	// 2026-08-26 — среда.
	wednesday := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	got := reviewWindow(wednesday)
	want := []string{"2026-08-24", "2026-08-25", "2026-08-26"}
	if len(got) != len(want) {
		t.Fatalf("окно итогов %v, ожидали %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("окно итогов %v, ожидали %v", got, want)
		}
	}
}

func TestReviewWindowOnMondayIsSingleDay(t *testing.T) {
	monday := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	if got := reviewWindow(monday); len(got) != 1 || got[0] != "2026-08-24" {
		t.Fatalf("в понедельник окно итогов должно быть из одного дня: %v", got)
	}
}

func TestPreviewWindowIsSevenDays(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	got := previewWindow(now)
	if len(got) != 7 {
		t.Fatalf("окно анонса из %d дат, ожидали 7", len(got))
	}
	if got[0] != "2026-08-24" || got[6] != "2026-08-30" {
		t.Fatalf("границы окна анонса неверны: %v", got)
	}
}
