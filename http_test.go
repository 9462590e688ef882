package vidgraph_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/graphql-go/graphql"
	"github.com/kylelemons/godebug/pretty"
	"go.appointy.com/vidgraph"
)

func mirrorSchema(t *testing.T) *graphql.Schema {
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query: graphql.NewObject(graphql.ObjectConfig{
			Name: "Query",
			Fields: graphql.Fields{
				"mirror": &graphql.Field{
					Type: graphql.Int,
					Args: graphql.FieldConfigArgument{
						"value": &graphql.ArgumentConfig{Type: graphql.Int},
					},
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						v, _ := p.Args["value"].(int)
						return v * -1, nil
					},
				},
				"fail": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return nil, errors.New("always fails")
					},
				},
				"explode": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						panic("kaboom")
					},
				},
			},
		}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{
			Name: "Mutation",
			Fields: graphql.Fields{
				"noop": &graphql.Field{
					Type: graphql.Boolean,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return true, nil
					},
				},
			},
		}),
	})
	if err != nil {
		t.Fatal(err)
	}
	return &schema
}

func testHTTPRequest(t *testing.T, req *http.Request, opts ...vidgraph.HandlerOption) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler := vidgraph.HTTPHandler(mirrorSchema(t), opts...)

	handler.ServeHTTP(rr, req)
	return rr
}

func post(t *testing.T, body string, opts ...vidgraph.HandlerOption) *httptest.ResponseRecorder {
	req, err := http.NewRequest("POST", "/graphql", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return testHTTPRequest(t, req, opts...)
}

func TestHTTPPlaygroundOnGet(t *testing.T) {
	req, err := http.NewRequest("GET", "/graphql", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := testHTTPRequest(t, req, vidgraph.WithPlayground("GraphQL Playground"))

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for playground UI, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("expected text/html, got %s", ct)
	}

	body := rr.Body.String()
	if !strings.Contains(body, "<title>GraphQL Playground</title>") {
		t.Errorf("expected playground HTML, got: %s", body)
	}
	if !strings.Contains(body, `'/graphql'`) {
		t.Errorf("expected /graphql endpoint in HTML")
	}
}

func TestHTTPGetWithoutPlayground(t *testing.T) {
	req, err := http.NewRequest("GET", "/graphql", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := testHTTPRequest(t, req)

	if diff := pretty.Compare(rr.Body.String(), `{"data":null,"errors":[{"message":"request must be a POST","extensions":{"code":"Unknown"}}]}`); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
}

func TestPlaygroundHandlerMethods(t *testing.T) {
	h := vidgraph.PlaygroundHandler("Videos", "/graphql")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("HEAD", "/", nil))
	if rr.Code != http.StatusOK || rr.Body.Len() != 0 {
		t.Errorf("expected empty 200 for HEAD, got %d with %d bytes", rr.Code, rr.Body.Len())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rr.Code)
	}
}

func TestHTTPParseQuery(t *testing.T) {
	req, err := http.NewRequest("POST", "/graphql", nil)
	if err != nil {
		t.Fatal(err)
	}

	rr := testHTTPRequest(t, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, but received %d", rr.Code)
	}

	if diff := pretty.Compare(rr.Body.String(), `{"data":null,"errors":[{"message":"request must include a query","extensions":{"code":"Unknown"}}]}`); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
}

func TestHTTPEmptyQuery(t *testing.T) {
	rr := post(t, `{"query":""}`)

	if diff := pretty.Compare(rr.Body.String(), `{"data":null,"errors":[{"message":"request must include a query","extensions":{"code":"Unknown"}}]}`); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
}

func TestHTTPMustHaveQuery(t *testing.T) {
	rr := post(t, `{"query":"fragment F on Query { mirror }"}`)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, but received %d", rr.Code)
	}

	if diff := pretty.Compare(rr.Body.String(), `{"data":null,"errors":[{"message":"must have a single query","extensions":{"code":"Unknown"}}]}`); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
}

func TestHTTPBadJSON(t *testing.T) {
	rr := post(t, `{"query":`)

	if !strings.Contains(rr.Body.String(), `"errors":[{"message":"unexpected EOF"`) {
		t.Errorf("expected decode error, got %s", rr.Body.String())
	}
}

func TestHTTPSyntaxError(t *testing.T) {
	rr := post(t, `{"query":"{ mirror("}`)

	if !strings.Contains(rr.Body.String(), "Syntax Error") {
		t.Errorf("expected syntax error, got %s", rr.Body.String())
	}
}

func TestHTTPValidationError(t *testing.T) {
	rr := post(t, `{"query":"{ nope }"}`)

	body := rr.Body.String()
	if !strings.Contains(body, `Cannot query field \"nope\" on type \"Query\".`) {
		t.Errorf("expected validation error, got %s", body)
	}
	if !strings.HasPrefix(body, `{"data":null,`) {
		t.Errorf("expected no data, got %s", body)
	}
}

func TestHTTPSuccess(t *testing.T) {
	rr := post(t, `{"query": "query TestQuery($value: Int) { mirror(value: $value) }", "variables": { "value": 1 }}`)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, but received %d", rr.Code)
	}

	if diff := pretty.Compare(rr.Body.String(), "{\"data\":{\"mirror\":-1},\"errors\":null}"); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
}

func TestHTTPResolverError(t *testing.T) {
	rr := post(t, `{"query": "{ fail mirror(value: 2) }"}`)

	body := rr.Body.String()
	if !strings.HasPrefix(body, `{"data":{"fail":null,"mirror":-2},"errors":[{"message":"always fails"`) {
		t.Errorf("unexpected response %s", body)
	}
}

func TestHTTPOperationName(t *testing.T) {
	query := `{"query": "query A { mirror(value: 1) } query B { mirror(value: 2) }", "operationName": "B"}`
	rr := post(t, query)

	if diff := pretty.Compare(rr.Body.String(), "{\"data\":{\"mirror\":-2},\"errors\":null}"); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}

	rr = post(t, `{"query": "query A { mirror(value: 1) } query B { mirror(value: 2) }"}`)
	if !strings.Contains(rr.Body.String(), "must provide operation name") {
		t.Errorf("expected operation name error, got %s", rr.Body.String())
	}

	rr = post(t, `{"query": "query A { mirror(value: 1) }", "operationName": "C"}`)
	if !strings.Contains(rr.Body.String(), `unknown operation named \"C\"`) {
		t.Errorf("expected unknown operation error, got %s", rr.Body.String())
	}
}

func TestHTTPContentType(t *testing.T) {
	rr := post(t, `{"query": "query TestQuery($value: Int) { mirror(value: $value) }", "variables": { "value": 1 }}`)

	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, but received %d", rr.Code)
	}

	if diff := pretty.Compare(rr.Header().Get("Content-Type"), "application/json"); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
}

func TestHTTPMiddlewareOrderAndVariables(t *testing.T) {
	var calls []string
	var ops []string
	var vars map[string]interface{}

	tag := func(name string) vidgraph.MiddlewareFunc {
		return func(next vidgraph.HandlerFunc) vidgraph.HandlerFunc {
			return func(ctx context.Context, req *vidgraph.Request) *graphql.Result {
				calls = append(calls, name)
				ops = append(ops, req.Operation)
				vars = vidgraph.ExtractVariables(ctx)
				return next(ctx, req)
			}
		}
	}

	rr := post(t, `{"query": "mutation { noop }", "variables": {"x": "y"}}`,
		vidgraph.WithMiddlewares(tag("outer"), tag("inner")))

	if diff := pretty.Compare(rr.Body.String(), "{\"data\":{\"noop\":true},\"errors\":null}"); diff != "" {
		t.Errorf("expected response to match, but received %s", diff)
	}
	if diff := pretty.Compare(calls, []string{"outer", "inner"}); diff != "" {
		t.Errorf("unexpected middleware order: %s", diff)
	}
	if diff := pretty.Compare(ops, []string{"mutation", "mutation"}); diff != "" {
		t.Errorf("unexpected operation: %s", diff)
	}
	if diff := pretty.Compare(vars, map[string]interface{}{"x": "y"}); diff != "" {
		t.Errorf("unexpected variables: %s", diff)
	}
}

func TestExtractVariablesMissing(t *testing.T) {
	if v := vidgraph.ExtractVariables(context.Background()); v != nil {
		t.Errorf("expected nil, got %v", v)
	}
}

func TestHTTPOperationNameFromDocument(t *testing.T) {
	var names []string
	capture := func(next vidgraph.HandlerFunc) vidgraph.HandlerFunc {
		return func(ctx context.Context, req *vidgraph.Request) *graphql.Result {
			names = append(names, req.OperationName)
			return next(ctx, req)
		}
	}

	post(t, `{"query": "query Mirror { mirror(value: 1) }"}`, vidgraph.WithMiddlewares(capture))
	post(t, `{"query": "{ mirror(value: 1) }"}`, vidgraph.WithMiddlewares(capture))
	post(t, `{"query": "query A { mirror(value: 1) } query B { mirror(value: 2) }", "operationName": "B"}`, vidgraph.WithMiddlewares(capture))

	if diff := pretty.Compare(names, []string{"Mirror", "", "B"}); diff != "" {
		t.Errorf("unexpected operation names: %s", diff)
	}
}

func TestPlaygroundHandlerEscapes(t *testing.T) {
	h := vidgraph.PlaygroundHandler("<Videos>", "/gql'</script><script>alert(1)//")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	body := rr.Body.String()

	if !strings.Contains(body, "<title>&lt;Videos&gt;</title>") {
		t.Errorf("title not escaped: %s", body)
	}
	if strings.Contains(body, "</script><script>alert(1)") {
		t.Errorf("endpoint not escaped: %s", body)
	}
	if !strings.Contains(body, `'/gql\'`) {
		t.Errorf("quote in endpoint not escaped: %s", body)
	}
}
