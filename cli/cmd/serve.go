package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tevino/abool/v2"
	"github.com/valyala/fasthttp"

	"github.com/frenebo/layer-lang/lang"
	"github.com/frenebo/layer-lang/log"
)

// defaultRequestTimeout bounds each request when no --timeout is given.
const defaultRequestTimeout = 10 * time.Second

// Serve runs the playground: an HTTP server that parses and runs programs
// posted as JSON.
//
//	POST /run    {"source": "...", "engine": "stack", "max_steps": 1000}
//	POST /parse  {"source": "..."}
//	GET  /healthz
//
// A successful run replies {"bindings": {...}} and a successful parse
// {"tree": {...}}. Programs that fail to lex, parse or run reply 422 with
// {"error": "...", "attrs": {...}}. Malformed requests reply 400.
type Serve struct {
	Limits `embed:""`

	Addr       string        `default:"127.0.0.1:7878" help:"Address to listen on."`
	MaxBody    int           `default:"1048576"        help:"Maximum request body size in bytes."`
	PruneEvery time.Duration `default:"10m"            help:"Interval between prunes of the parse tree store."`
	PruneAge   time.Duration `default:"24h"            help:"Prune stored trees unused for this long."`
	NoCache    bool          `                         help:"Do not use the on-disk parse tree store."`
}

// Run executes the serve command.
func (s *Serve) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var store *lang.TreeStore
	if !s.NoCache {
		store = openStore(ctx)
	}

	pg, err := newPlayground(ctx, s.Limits, store)
	if err != nil {
		return err
	}

	if store != nil && s.PruneEvery > 0 {
		stop, err := s.schedulePrune(ctx, store)
		if err != nil {
			return err
		}
		defer stop()
	}

	server := &fasthttp.Server{
		Handler:            pg.handle,
		Name:               "layer",
		ReadTimeout:        time.Minute,
		WriteTimeout:       time.Minute,
		MaxRequestBodySize: s.MaxBody,
	}

	errc := make(chan error, 1)

	go func() {
		log.InfoContext(ctx, "playground listening", slog.String("addr", s.Addr))
		errc <- server.ListenAndServe(s.Addr)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return ErrServe.With(slog.String("addr", s.Addr)).Wrap(err)
		}

		return nil

	case <-ctx.Done():
	}

	pg.draining.Set()

	log.InfoContext(ctx, "playground draining", slog.String("addr", s.Addr))

	if err := server.Shutdown(); err != nil {
		return ErrServe.With(slog.String("addr", s.Addr)).Wrap(err)
	}

	return nil
}

// schedulePrune starts a job that prunes store periodically and returns a
// function that stops it.
func (s *Serve) schedulePrune(
	ctx context.Context,
	store *lang.TreeStore,
) (func(), error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, ErrServe.Wrap(err)
	}

	task := func() {
		removed, err := store.Prune(s.PruneAge)
		if err != nil {
			log.WarnContext(ctx, "prune stored trees", slog.Any("error", err))

			return
		}

		log.DebugContext(ctx, "pruned stored trees",
			slog.Int("removed", removed),
			slog.Duration("max_age", s.PruneAge),
		)
	}

	if _, err := scheduler.NewJob(
		gocron.DurationJob(s.PruneEvery),
		gocron.NewTask(task),
	); err != nil {
		_ = scheduler.Shutdown()

		return nil, ErrServe.Wrap(err)
	}

	scheduler.Start()

	return func() {
		if err := scheduler.Shutdown(); err != nil {
			log.WarnContext(ctx, "stop prune schedule", slog.Any("error", err))
		}
	}, nil
}

// request is the body of POST /run and POST /parse.
type request struct {
	Source   string `json:"source"`
	Engine   string `json:"engine"`
	MaxSteps int    `json:"max_steps"`
	MaxDepth int    `json:"max_depth"`
}

type errorReply struct {
	Attrs map[string]string `json:"attrs,omitempty"`
	Error string            `json:"error"`
}

// requestSchema returns the JSON schema every request body must satisfy.
var requestSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := json.Marshal(map[string]any{
		"type":                 "object",
		"required":             []string{"source"},
		"additionalProperties": false,
		"properties": map[string]any{
			"source":    map[string]any{"type": "string"},
			"engine":    map[string]any{"enum": lang.Engines()},
			"max_steps": map[string]any{"type": "integer", "minimum": 0},
			"max_depth": map[string]any{"type": "integer", "minimum": 0},
		},
	})
	if err != nil {
		return nil, ErrRequestSchema.Wrap(err)
	}

	const url = "layer://request.json"

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	if err := c.AddResource(url, bytes.NewReader(doc)); err != nil {
		return nil, ErrRequestSchema.Wrap(err)
	}

	schema, err := c.Compile(url)
	if err != nil {
		return nil, ErrRequestSchema.Wrap(err)
	}

	return schema, nil
})

// playground holds the state shared by request handlers.
type playground struct {
	ctx      context.Context
	schema   *jsonschema.Schema
	store    *lang.TreeStore
	draining *abool.AtomicBool
	limits   Limits
}

func newPlayground(
	ctx context.Context,
	limits Limits,
	store *lang.TreeStore,
) (*playground, error) {
	if _, err := lang.ParseEngine(limits.Engine); err != nil {
		return nil, err
	}

	schema, err := requestSchema()
	if err != nil {
		return nil, err
	}

	return &playground{
		ctx:      ctx,
		schema:   schema,
		store:    store,
		draining: abool.NewBool(false),
		limits:   limits,
	}, nil
}

func (p *playground) handle(rc *fasthttp.RequestCtx) {
	start := time.Now()

	switch path := string(rc.Path()); {
	case p.draining.IsSet():
		rc.Error("draining", fasthttp.StatusServiceUnavailable)

	case path == "/healthz":
		rc.SetContentType("text/plain; charset=utf-8")
		rc.SetBodyString("ok\n")

	case path == "/run" || path == "/parse":
		if !rc.IsPost() {
			rc.Error("method not allowed", fasthttp.StatusMethodNotAllowed)

			break
		}

		p.program(rc, path)

	default:
		rc.Error(ErrUnknownEndpoint.Error(), fasthttp.StatusNotFound)
	}

	log.DebugContext(p.ctx, "request",
		slog.String("method", string(rc.Method())),
		slog.String("path", string(rc.Path())),
		slog.Int("status", rc.Response.StatusCode()),
		slog.Duration("elapsed", time.Since(start)),
	)
}

// decode validates the request body against the schema and decodes it.
func (p *playground) decode(body []byte) (request, error) {
	var req request

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return req, ErrInvalidRequest.Wrap(err)
	}

	if err := p.schema.Validate(doc); err != nil {
		return req, ErrInvalidRequest.Wrap(err)
	}

	if err := json.Unmarshal(body, &req); err != nil {
		return req, ErrInvalidRequest.Wrap(err)
	}

	return req, nil
}

// requestLimits returns the server limits tightened by the request. A
// request cannot raise a limit the server sets.
func (p *playground) requestLimits(req request) Limits {
	l := p.limits

	if req.Engine != "" {
		l.Engine = req.Engine
	}

	l.MaxSteps = tighter(l.MaxSteps, req.MaxSteps)
	l.MaxDepth = tighter(l.MaxDepth, req.MaxDepth)

	if l.Timeout <= 0 {
		l.Timeout = defaultRequestTimeout
	}

	return l
}

// tighter returns the smaller positive limit; 0 means unlimited.
func tighter(server, req int) int {
	switch {
	case req <= 0:
		return server
	case server <= 0:
		return req
	default:
		return min(server, req)
	}
}

func (p *playground) program(rc *fasthttp.RequestCtx, path string) {
	req, err := p.decode(rc.PostBody())
	if err != nil {
		p.reply(rc, fasthttp.StatusBadRequest, errorBody(err))

		return
	}

	limits := p.requestLimits(req)

	opts, err := limits.options()
	if err != nil {
		p.reply(rc, fasthttp.StatusBadRequest, errorBody(err))

		return
	}

	ctx, cancel := limits.withTimeout(p.ctx)
	defer cancel()

	tree, err := loadTree(ctx, p.store, req.Source, opts...)
	if err != nil {
		p.reply(rc, fasthttp.StatusUnprocessableEntity, errorBody(err))

		return
	}

	if path == "/parse" {
		p.reply(rc, fasthttp.StatusOK, map[string]any{"tree": tree})

		return
	}

	scope, err := lang.Execute(ctx, tree, opts...)
	if err != nil {
		p.reply(rc, fasthttp.StatusUnprocessableEntity, errorBody(err))

		return
	}

	p.reply(rc, fasthttp.StatusOK, map[string]any{"bindings": scope})
}

func (p *playground) reply(rc *fasthttp.RequestCtx, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.ErrorContext(p.ctx, "encode reply", slog.Any("error", err))
		rc.Error(err.Error(), fasthttp.StatusInternalServerError)

		return
	}

	rc.SetStatusCode(status)
	rc.SetContentType("application/json")
	rc.SetBody(append(data, '\n'))
}

// errorBody describes err for a client. Structured attributes of layer
// errors are flattened to strings.
func errorBody(err error) errorReply {
	reply := errorReply{Error: err.Error()}

	var le *lang.Error
	if errors.As(err, &le) {
		for _, a := range le.Attrs() {
			if reply.Attrs == nil {
				reply.Attrs = make(map[string]string)
			}

			reply.Attrs[a.Key] = strings.TrimSpace(a.Value.Resolve().String())
		}
	}

	return reply
}
