package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"appointment-watcher/apperr"
	"appointment-watcher/types"

	"github.com/PuerkitoBio/goquery"
)

const (
	DefaultBaseURL = "https://solicitudeswebrc.srcei.cl/ReservaDeHoraSRCEI/web/init.srcei"
	DefaultModule  = "Reimpresión cédula"

	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	dateLayout = "02/01/2006"
)

var (
	ErrLoginFailed    = errors.New("portal login failed")
	ErrSessionExpired = errors.New("portal session expired")
	ErrUnknownRegion  = errors.New("region not offered by portal")
	ErrUnknownOffice  = errors.New("office not offered by portal")
	ErrNoOffice       = errors.New("no office selected")
	ErrLoaderTimeout  = errors.New("results loader did not settle")
	ErrModuleNotFound = errors.New("module button not found")
)

// Credentials — RUN и ClaveÚnica для входа на портал.
type Credentials struct {
	RUN      string
	Password string
}

// Options настраивают сессию портала. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	BaseURL     string
	Module      string
	Region      string
	Credentials Credentials
	Timeout     time.Duration

	// задержка между запросами, случайная в [MinDelay, MaxDelay]
	MinDelay time.Duration
	MaxDelay time.Duration

	// сколько раз перезапрашивать дату, пока виден лоадер
	LoaderPolls   int
	LoaderBackoff time.Duration

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.Module == "" {
		o.Module = DefaultModule
	}
	if o.Timeout == 0 {
		o.Timeout = 20 * time.Second
	}
	if o.MaxDelay < o.MinDelay {
		o.MaxDelay = o.MinDelay
	}
	if o.LoaderPolls <= 0 {
		o.LoaderPolls = 10
	}
	if o.LoaderBackoff == 0 {
		o.LoaderBackoff = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Portal — одна залогиненная сессия на портале. Не потокобезопасна:
// выбранные регион и офис — состояние сессии, запросы идут строго по одному.
type Portal struct {
	opts   Options
	client *http.Client
	logger *slog.Logger

	lastRequest time.Time

	page    *goquery.Document // страница модуля записи
	pageURL *url.URL
	office  *officeOption
}

type officeOption struct {
	Value string
	Name  string
}

// New создаёт HTTP клиент с cookie jar, но ещё не логинится.
func New(opts Options) (*Portal, error) {
	opts = opts.withDefaults()

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Portal{
		opts: opts,
		client: &http.Client{
			Jar:     jar,
			Timeout: opts.Timeout,
		},
		logger: opts.Logger,
	}, nil
}

// Open логинится, открывает модуль записи и выбирает регион.
func Open(ctx context.Context, opts Options) (*Portal, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	if err := p.Login(ctx); err != nil {
		return nil, err
	}
	if err := p.OpenModule(ctx); err != nil {
		return nil, err
	}
	if err := p.SelectRegion(p.opts.Region); err != nil {
		return nil, err
	}
	return p, nil
}

// Login отправляет форму входа, найденную по полю RUN.
func (p *Portal) Login(ctx context.Context) error {
	p.logger.Info("🔐 logging in to portal")

	doc, base, err := p.fetch(ctx, http.MethodGet, p.opts.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("open login page: %w", err)
	}

	runInput := doc.Find("#cu_inputRUN").First()
	if runInput.Length() == 0 {
		return fmt.Errorf("%w: login form not found", ErrLoginFailed)
	}
	form := runInput.Closest("form")
	if form.Length() == 0 {
		return fmt.Errorf("%w: login form not found", ErrLoginFailed)
	}

	values := hiddenInputs(form)
	values.Set(inputName(runInput, "run"), p.opts.Credentials.RUN)
	values.Set(inputName(doc.Find("#cu_inputClaveUnica").First(), "password"), p.opts.Credentials.Password)

	action, err := resolve(base, attrOr(form, "action", ""))
	if err != nil {
		return err
	}

	landing, landingURL, err := p.fetch(ctx, http.MethodPost, action, values)
	if err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if hasLoginForm(landing) {
		return ErrLoginFailed
	}

	p.page = landing
	p.pageURL = landingURL
	p.logger.Info("✅ login successful")
	return nil
}

// OpenModule переходит на страницу модуля (по умолчанию "Reimpresión cédula").
func (p *Portal) OpenModule(ctx context.Context) error {
	if p.page == nil {
		return errors.New("open module: not logged in")
	}

	button, strategy, ok := locate(p.page, moduleLocators(p.opts.Module))
	if !ok {
		return fmt.Errorf("%w: %q", ErrModuleNotFound, p.opts.Module)
	}
	p.logger.Debug("module button located", "strategy", strategy)

	method, target, values, err := buttonTarget(button, p.pageURL)
	if err != nil {
		return err
	}

	doc, docURL, err := p.fetch(ctx, method, target, values)
	if err != nil {
		return fmt.Errorf("open module: %w", err)
	}
	if hasLoginForm(doc) {
		return ErrSessionExpired
	}
	if doc.Find("#selectRegion").Length() == 0 {
		return fmt.Errorf("open module: region selector not found")
	}

	p.page = doc
	p.pageURL = docURL
	p.office = nil
	p.logger.Info("📄 navigated to module", "module", p.opts.Module)
	return nil
}

// SelectRegion проверяет, что регион есть в выпадающем списке.
func (p *Portal) SelectRegion(region string) error {
	if p.page == nil {
		return errors.New("select region: module page not open")
	}
	found := false
	p.page.Find("#selectRegion option").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if v, _ := s.Attr("value"); v == region {
			found = true
			return false
		}
		return true
	})
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownRegion, region)
	}
	p.opts.Region = region
	p.office = nil
	return nil
}

// SelectOffice выбирает офис по видимому названию в списке офисов региона.
func (p *Portal) SelectOffice(ctx context.Context, office string) error {
	if p.page == nil {
		return errors.New("select office: module page not open")
	}

	var match *officeOption
	p.page.Find("#selectOficinas option").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if r, ok := s.Attr("data-region"); ok && r != p.opts.Region {
			return true
		}
		if cleanText(s.Text()) != office {
			return true
		}
		value, _ := s.Attr("value")
		match = &officeOption{Value: value, Name: office}
		return false
	})
	if match == nil {
		return fmt.Errorf("%w: %q", ErrUnknownOffice, office)
	}
	p.office = match
	return nil
}

// QueryDate ищет слоты выбранного офиса на дату. Пока на ответе виден лоадер,
// запрос повторяется с паузой (не больше LoaderPolls раз).
func (p *Portal) QueryDate(ctx context.Context, date time.Time) ([]types.RawSlot, error) {
	if p.office == nil {
		return nil, ErrNoOffice
	}

	form := p.page.Find("#idFechaSeleccionadaDesde").First().Closest("form")
	if form.Length() == 0 {
		return nil, errors.New("query date: search form not found")
	}
	action, err := resolve(p.pageURL, attrOr(form, "action", ""))
	if err != nil {
		return nil, err
	}

	values := hiddenInputs(form)
	values.Set(inputName(p.page.Find("#selectRegion").First(), "region"), p.opts.Region)
	values.Set(inputName(p.page.Find("#selectOficinas").First(), "oficina"), p.office.Value)
	values.Set(inputName(p.page.Find("#idFechaSeleccionadaDesde").First(), "fecha"), date.Format(dateLayout))

	for attempt := 0; attempt < p.opts.LoaderPolls; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, p.opts.LoaderBackoff); err != nil {
				return nil, err
			}
		}

		doc, _, err := p.fetch(ctx, http.MethodPost, action, values)
		if err != nil {
			return nil, err
		}
		if hasLoginForm(doc) {
			return nil, apperr.Wrap(apperr.CycleFatal, "query date", ErrSessionExpired)
		}
		if loaderVisible(doc) {
			continue
		}
		if doc.Find("#idHorasDisponiblesContainer").Length() == 0 {
			return nil, errors.New("query date: results container not found")
		}
		return parseSlots(doc), nil
	}
	return nil, ErrLoaderTimeout
}

// Close сбрасывает сессию: куки и открытые соединения.
func (p *Portal) Close() error {
	p.client.CloseIdleConnections()
	if jar, err := cookiejar.New(nil); err == nil {
		p.client.Jar = jar
	}
	p.page = nil
	p.office = nil
	return nil
}

func (p *Portal) fetch(ctx context.Context, method, target string, form url.Values) (*goquery.Document, *url.URL, error) {
	if err := p.rateLimit(ctx); err != nil {
		return nil, nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil, fmt.Errorf("portal %s %s: http %d", method, req.URL.Path, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return doc, resp.Request.URL, nil
}

// rateLimit добавляет случайную задержку между запросами
func (p *Portal) rateLimit(ctx context.Context) error {
	delay := p.opts.MinDelay
	if spread := p.opts.MaxDelay - p.opts.MinDelay; spread > 0 {
		delay += time.Duration(rand.Int63n(int64(spread)))
	}
	elapsed := time.Since(p.lastRequest)
	if elapsed < delay {
		if err := sleepCtx(ctx, delay-elapsed); err != nil {
			return err
		}
	}
	p.lastRequest = time.Now()
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func hasLoginForm(doc *goquery.Document) bool {
	return doc.Find("#cu_inputRUN").Length() > 0
}

func hiddenInputs(form *goquery.Selection) url.Values {
	values := url.Values{}
	form.Find("input[type='hidden']").Each(func(i int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			return
		}
		values.Set(name, attrOr(s, "value", ""))
	})
	return values
}

func inputName(s *goquery.Selection, fallback string) string {
	return attrOr(s, "name", fallback)
}

func attrOr(s *goquery.Selection, attr, fallback string) string {
	if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("bad link %q: %w", ref, err)
	}
	if base == nil {
		return u.String(), nil
	}
	return base.ResolveReference(u).String(), nil
}
