package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"
)

const (
	DefaultPolicyQuery = "data.davgate.allow"
)

// PolicyInput 策略的输入, 对应rego中的input
type PolicyInput struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	User   string `json:"user"`
}

type IAuthorizer interface {
	Allow(ctx context.Context, in *PolicyInput) (bool, error)
}

// PolicyAuthorizer 基于rego策略做鉴权, 查询结果不是true时一律拒绝
type PolicyAuthorizer struct {
	query rego.PreparedEvalQuery
}

func NewPolicyAuthorizer(ctx context.Context, module string) (*PolicyAuthorizer, error) {
	q, err := rego.New(
		rego.Query(DefaultPolicyQuery),
		rego.Module("davgate.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy failed, err:%w", err)
	}
	return &PolicyAuthorizer{query: q}, nil
}

func NewPolicyAuthorizerFromFile(ctx context.Context, file string) (*PolicyAuthorizer, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read policy file failed, file:%s, err:%w", file, err)
	}
	return NewPolicyAuthorizer(ctx, string(raw))
}

func (p *PolicyAuthorizer) Allow(ctx context.Context, in *PolicyInput) (bool, error) {
	rs, err := p.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"method": in.Method,
		"path":   in.Path,
		"user":   in.User,
	}))
	if err != nil {
		return false, fmt.Errorf("eval policy failed, err:%w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allow, ok := rs[0].Expressions[0].Value.(bool)
	return ok && allow, nil
}
