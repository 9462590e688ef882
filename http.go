package vidgraph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/gqlerrors"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
	"go.appointy.com/vidgraph/jerrors"
)

// Request is a parsed GraphQL request travelling through the middleware chain.
type Request struct {
	Query         string
	Variables     map[string]interface{}
	// OperationName is the requested operation, or the name of the only
	// operation in the document. Empty for a single anonymous operation.
	OperationName string

	// Operation is "query" or "mutation".
	Operation string
	Document  *ast.Document
}

// HandlerFunc executes a request.
type HandlerFunc func(ctx context.Context, req *Request) *graphql.Result

// MiddlewareFunc wraps a HandlerFunc.
type MiddlewareFunc func(HandlerFunc) HandlerFunc

type HandlerOption func(*handlerOptions)

type handlerOptions struct {
	Middlewares     []MiddlewareFunc
	PlaygroundTitle string
}

// WithMiddlewares adds middlewares around execution. The first one is the
// outermost.
func WithMiddlewares(m ...MiddlewareFunc) HandlerOption {
	return func(o *handlerOptions) {
		o.Middlewares = append(o.Middlewares, m...)
	}
}

// WithPlayground makes GET requests serve the GraphiQL playground.
func WithPlayground(title string) HandlerOption {
	return func(o *handlerOptions) {
		o.PlaygroundTitle = title
	}
}

// HTTPHandler implements the handler required for executing the graphql queries and mutations
func HTTPHandler(schema *graphql.Schema, opts ...HandlerOption) http.Handler {
	h := &httpHandler{
		handler: handler{
			schema: schema,
		},
	}

	o := handlerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	h.playgroundTitle = o.PlaygroundTitle

	prev := h.execute
	for i := range o.Middlewares {
		prev = o.Middlewares[len(o.Middlewares)-1-i](prev)
	}
	h.exec = prev

	return h
}

type handler struct {
	schema *graphql.Schema
}

type httpHandler struct {
	handler

	exec            HandlerFunc
	playgroundTitle string
}

type httpPostBody struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

type httpResponse struct {
	Data   interface{}      `json:"data"`
	Errors []*jerrors.Error `json:"errors"`
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	write := func(response httpResponse) {
		responseJSON, err := json.Marshal(response)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/json")
		}
		_, _ = w.Write(responseJSON)
	}
	writeError := func(err error) {
		write(httpResponse{Errors: []*jerrors.Error{jerrors.ConvertError(err)}})
	}

	if r.Method == http.MethodGet && h.playgroundTitle != "" {
		PlaygroundHandler(h.playgroundTitle, r.URL.Path).ServeHTTP(w, r)
		return
	}

	if r.Method != http.MethodPost {
		writeError(errors.New("request must be a POST"))
		return
	}

	if r.Body == nil || r.Body == http.NoBody {
		writeError(errors.New("request must include a query"))
		return
	}

	var params httpPostBody
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(err)
		return
	}

	if params.Query == "" {
		writeError(errors.New("request must include a query"))
		return
	}

	req, err := parseRequest(params)
	if err != nil {
		write(httpResponse{Errors: []*jerrors.Error{jerrors.ConvertFormatted(gqlerrors.FormatError(err))}})
		return
	}

	ctx := addVariables(r.Context(), params.Variables)

	result := h.exec(ctx, req)
	write(httpResponse{Data: result.Data, Errors: jerrors.ConvertFormattedList(result.Errors)})
}

func parseRequest(params httpPostBody) (*Request, error) {
	doc, err := parser.Parse(parser.ParseParams{Source: params.Query})
	if err != nil {
		return nil, err
	}

	var ops []*ast.OperationDefinition
	for _, def := range doc.Definitions {
		if op, ok := def.(*ast.OperationDefinition); ok {
			ops = append(ops, op)
		}
	}

	var selected *ast.OperationDefinition
	switch {
	case len(ops) == 0:
		return nil, errors.New("must have a single query")
	case params.OperationName == "" && len(ops) > 1:
		return nil, errors.New("must provide operation name if query contains multiple operations")
	case params.OperationName == "":
		selected = ops[0]
	default:
		for _, op := range ops {
			if op.Name != nil && op.Name.Value == params.OperationName {
				selected = op
				break
			}
		}
		if selected == nil {
			return nil, fmt.Errorf("unknown operation named %q", params.OperationName)
		}
	}

	name := params.OperationName
	if name == "" && selected.Name != nil {
		name = selected.Name.Value
	}

	return &Request{
		Query:         params.Query,
		Variables:     params.Variables,
		OperationName: name,
		Operation:     selected.Operation,
		Document:      doc,
	}, nil
}

func (h *httpHandler) execute(ctx context.Context, req *Request) *graphql.Result {
	if v := graphql.ValidateDocument(h.schema, req.Document, graphql.SpecifiedRules); !v.IsValid {
		return &graphql.Result{Errors: v.Errors}
	}

	return graphql.Execute(graphql.ExecuteParams{
		Schema:        *h.schema,
		AST:           req.Document,
		OperationName: req.OperationName,
		Args:          req.Variables,
		Context:       ctx,
	})
}

type graphqlVariableKeyType int

const graphqlVariableKey graphqlVariableKeyType = 0

// ExtractVariables is used to returns the variables received as part of the graphql request.
// This is intended to be used from within the interceptors.
func ExtractVariables(ctx context.Context) map[string]interface{} {
	if v := ctx.Value(graphqlVariableKey); v != nil {
		return v.(map[string]interface{})
	}

	return nil
}

func addVariables(ctx context.Context, v map[string]interface{}) context.Context {
	return context.WithValue(ctx, graphqlVariableKey, v)
}

// playgroundHTML loads GraphiQL from a CDN and posts queries to the endpoint.
const playgroundHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8" />
    <title>%s</title>
    <style>
        body {
            height: 100%%;
            margin: 0;
            overflow: hidden;
        }
        #graphiql {
            height: 100vh;
        }
    </style>
    <link rel="stylesheet" href="https://unpkg.com/graphiql@1.4.0/graphiql.min.css" />
    <script src="https://unpkg.com/react@16.14.0/umd/react.production.min.js"></script>
    <script src="https://unpkg.com/react-dom@16.14.0/umd/react-dom.production.min.js"></script>
    <script src="https://unpkg.com/graphiql@1.4.0/graphiql.min.js"></script>
</head>
<body>
    <div id="graphiql">Loading...</div>
    <script>
      function graphQLFetcher(graphQLParams) {
        return fetch(
          '%s',
          {
            method: 'post',
            headers: {
              Accept: 'application/json',
              'Content-Type': 'application/json',
            },
            body: JSON.stringify(graphQLParams),
            credentials: 'omit',
          },
        ).then(function (response) {
          return response.json().catch(function () {
            return response.text();
          });
        });
      }

      ReactDOM.render(
        React.createElement(GraphiQL, {
          fetcher: graphQLFetcher,
        }),
        document.getElementById('graphiql'),
      );
    </script>
</body>
</html>`

// PlaygroundHandler returns an HTTP handler that serves an interactive
// GraphiQL playground posting to graphqlEndpoint.
//
// Typical usage:
//   http.Handle("/graphql", vidgraph.HTTPHandler(schema))
//   http.Handle("/", vidgraph.PlaygroundHandler("Videos", "/graphql"))
func PlaygroundHandler(title, graphqlEndpoint string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.Method == http.MethodHead {
			return
		}
		_, _ = fmt.Fprintf(w, playgroundHTML, template.HTMLEscapeString(title), template.JSEscapeString(graphqlEndpoint))
	})
}
