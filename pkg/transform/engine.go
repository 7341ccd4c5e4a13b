package transform

import (
	"fmt"
	"math"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"feature-store-be/internal/apperrors"
	"feature-store-be/internal/entity"
)

// step is one compiled feature in a plan.
type step struct {
	meta    *entity.FeatureMetadata
	sources []string
	program *vm.Program // expression kind
	native  NativeFn    // native kind
}

// Plan is the compiled form of a feature group: members in topological order
// over source_features edges, expressions compiled, native handles resolved.
// Plans are built once at registration and are immutable afterwards, so they
// are shared freely across concurrent ingestions.
type Plan struct {
	Group *entity.FeatureGroup
	Order []string
	steps map[string]*step
}

// Engine applies a plan to raw input records. It holds no storage knowledge.
type Engine struct {
	registry *Registry
}

func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Compile validates the group's transformation graph and produces a plan.
// Cycles (self references included) fail with CyclicDependencyError; bad
// expressions and unresolved native handles fail with
// InvalidTransformationError. Compile never executes user expressions.
func (e *Engine) Compile(group *entity.FeatureGroup) (*Plan, error) {
	snapshot := group.Clone()

	steps := make(map[string]*step, len(snapshot.Features))
	for _, meta := range snapshot.Features {
		st := &step{meta: meta}
		if t := meta.Transformation; t != nil {
			for _, src := range t.SourceFeatures {
				if src == meta.Name {
					return nil, &apperrors.CyclicDependencyError{
						Group:    snapshot.Name,
						Features: []string{meta.Name},
					}
				}
			}
			st.sources = t.SourceFeatures
			switch t.Kind {
			case entity.TransformExpression:
				program, err := expr.Compile(t.Expression,
					expr.Env(map[string]interface{}{}),
					expr.AllowUndefinedVariables(),
				)
				if err != nil {
					return nil, &apperrors.InvalidTransformationError{
						Feature: meta.Name,
						Reason:  fmt.Sprintf("expression does not compile: %v", err),
					}
				}
				st.program = program
			case entity.TransformNative:
				fn, ok := e.registry.Lookup(t.Handle)
				if !ok {
					return nil, &apperrors.InvalidTransformationError{
						Feature: meta.Name,
						Reason:  fmt.Sprintf("unknown native handle %q", t.Handle),
					}
				}
				st.native = fn
			default:
				return nil, &apperrors.InvalidTransformationError{
					Feature: meta.Name,
					Reason:  fmt.Sprintf("unknown transformation kind %q", t.Kind),
				}
			}
		}
		steps[meta.Name] = st
	}

	order, err := topoOrder(snapshot, steps)
	if err != nil {
		return nil, err
	}

	return &Plan{Group: snapshot, Order: order, steps: steps}, nil
}

// topoOrder is Kahn's algorithm over in-group source edges. Sources that are
// not group members are raw input fields and carry no edge. Declaration order
// breaks ties so plans are deterministic.
func topoOrder(group *entity.FeatureGroup, steps map[string]*step) ([]string, error) {
	indegree := make(map[string]int, len(steps))
	dependents := make(map[string][]string, len(steps))

	for _, meta := range group.Features {
		indegree[meta.Name] = 0
	}
	for _, meta := range group.Features {
		st := steps[meta.Name]
		for _, src := range st.sources {
			if _, member := indegree[src]; member {
				indegree[meta.Name]++
				dependents[src] = append(dependents[src], meta.Name)
			}
		}
	}

	queue := make([]string, 0, len(steps))
	for _, meta := range group.Features {
		if indegree[meta.Name] == 0 {
			queue = append(queue, meta.Name)
		}
	}

	order := make([]string, 0, len(steps))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, dep := range dependents[n] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != len(steps) {
		var cycle []string
		for _, meta := range group.Features {
			if indegree[meta.Name] > 0 {
				cycle = append(cycle, meta.Name)
			}
		}
		return nil, &apperrors.CyclicDependencyError{Group: group.Name, Features: cycle}
	}
	return order, nil
}

// Evaluate computes every feature of the plan over one raw input record.
// Features without a transformation must be present in the input directly;
// transformed features see only their declared sources, preferring already
// computed values over raw input fields.
func (e *Engine) Evaluate(plan *Plan, input map[string]interface{}) (map[string]entity.FeatureValue, error) {
	computed := make(map[string]entity.FeatureValue, len(plan.Order))

	for _, featureName := range plan.Order {
		st := plan.steps[featureName]

		if st.meta.Transformation == nil {
			raw, ok := input[featureName]
			if !ok || raw == nil {
				return nil, &apperrors.MissingFieldError{Feature: featureName, Field: featureName}
			}
			v, err := entity.CoerceValue(st.meta.Type, raw)
			if err != nil {
				return nil, &apperrors.ComputeError{Feature: featureName, Cause: err}
			}
			computed[featureName] = v
			continue
		}

		env := make(map[string]interface{}, len(st.sources))
		for _, src := range st.sources {
			if cv, ok := computed[src]; ok {
				env[src] = cv.Native()
				continue
			}
			if raw, ok := input[src]; ok && raw != nil {
				env[src] = raw
				continue
			}
			return nil, &apperrors.MissingFieldError{Feature: featureName, Field: src}
		}

		var out interface{}
		var err error
		if st.program != nil {
			out, err = expr.Run(st.program, env)
		} else {
			out, err = st.native(env)
		}
		if err != nil {
			return nil, &apperrors.ComputeError{Feature: featureName, Cause: err}
		}

		v, err := entity.CoerceValue(st.meta.Type, out)
		if err != nil {
			return nil, &apperrors.ComputeError{Feature: featureName, Cause: err}
		}
		if v.IsNumeric() && (math.IsNaN(v.Num) || math.IsInf(v.Num, 0)) {
			return nil, &apperrors.ComputeError{
				Feature: featureName,
				Cause:   fmt.Errorf("non-finite result %v", v.Num),
			}
		}
		computed[featureName] = v
	}

	return computed, nil
}
