package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jrsteele09/studio-auth-gateway/internal/config"
	"github.com/rs/zerolog/log"
)

// InvokeHandler is the Lambda handler the dev server fronts.
type InvokeHandler interface {
	Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)
}

// LoginURLBuilder builds the hosted UI login URL.
type LoginURLBuilder interface {
	LoginURL(state string) string
}

// Server serves the gateway handler over plain HTTP for local development.
type Server struct {
	dev     bool
	mux     *http.ServeMux
	routes  []string
	invoker InvokeHandler
	login   LoginURLBuilder
}

func New(c config.Config, invoker InvokeHandler, login LoginURLBuilder) *Server {
	s := &Server{
		dev:     c.IsDev(),
		mux:     http.NewServeMux(),
		invoker: invoker,
		login:   login,
	}

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if !s.dev {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Info().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}
