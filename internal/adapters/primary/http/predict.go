package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"pinserve/internal/core/domain"
)

// predictionRoute decodes a request body into a column frame. The variant is
// chosen once at construction time: strict enforces the prototype, raw passes
// structures through with best-effort field ordering.
type predictionRoute interface {
	decode(c *gin.Context, proto *domain.Prototype) (*domain.Frame, error)
}

// strictRoute accepts one instance or a sequence of instances, validates each
// against the prototype, and assembles a single frame in prototype field
// order. Without a prototype it still accepts structurally but skips
// field-level checks.
type strictRoute struct{}

func (strictRoute) decode(c *gin.Context, proto *domain.Prototype) (*domain.Frame, error) {
	instances, err := readInstances(c)
	if err != nil {
		return nil, err
	}
	if proto != nil {
		return proto.ValidateBatch(instances)
	}
	return structuralFrame(instances)
}

// rawRoute decodes the body as an untyped structure and forwards it. When a
// prototype exists its field order is reused, but constraints are not
// enforced.
type rawRoute struct{}

func (rawRoute) decode(c *gin.Context, proto *domain.Prototype) (*domain.Frame, error) {
	instances, err := readInstances(c)
	if err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if proto != nil {
		frame := domain.NewFrame(proto.FieldNames())
		for _, inst := range instances {
			frame.AppendRow(inst)
		}
		return frame, nil
	}
	return structuralFrame(instances)
}

// readInstances normalizes the request body into a list of rows: a JSON
// object is one instance, a JSON array is a batch.
func readInstances(c *gin.Context) ([]domain.Instance, error) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil, domain.ErrMalformedRequest
	}

	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, domain.ErrMalformedRequest
	}

	switch trimmed[0] {
	case '[':
		var batch []domain.Instance
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, domain.ErrMalformedRequest
		}
		if len(batch) == 0 {
			return nil, domain.ErrEmptyBatch
		}
		return batch, nil
	case '{':
		var one domain.Instance
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, domain.ErrMalformedRequest
		}
		return []domain.Instance{one}, nil
	default:
		return nil, domain.ErrMalformedRequest
	}
}

// structuralFrame builds a frame without a prototype: columns are the sorted
// union of field names seen in the batch.
func structuralFrame(instances []domain.Instance) (*domain.Frame, error) {
	if len(instances) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	seen := map[string]bool{}
	var columns []string
	for _, inst := range instances {
		for name := range inst {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}
	sort.Strings(columns)
	frame := domain.NewFrame(columns)
	for _, inst := range instances {
		frame.AppendRow(inst)
	}
	return frame, nil
}

// mapServingError turns per-request failures into client responses; the
// process keeps serving subsequent requests.
func mapServingError(c *gin.Context, err error) {
	var violation *domain.SchemaViolation
	switch {
	case errors.As(err, &violation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      violation.Error(),
			"field":      violation.Field,
			"constraint": violation.Constraint,
		})
	case errors.Is(err, domain.ErrMalformedRequest),
		errors.Is(err, domain.ErrEmptyBatch):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.WithError(err).Error("prediction failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
