package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/hris-lab/trainflow/internal/resputil"
	"github.com/hris-lab/trainflow/pkg/workflow"
)

// respondWorkflowError maps the workflow error taxonomy onto response
// codes. Denials stay generic on purpose; the original error detail is
// logged, not shown to the actor.
func respondWorkflowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, workflow.ErrValidation):
		resputil.BadRequest(c, err.Error(), resputil.InvalidRequest)
	case errors.Is(err, workflow.ErrPermissionDenied):
		resputil.HTTPError(c, http.StatusForbidden,
			"you are not allowed to perform this action", resputil.UserNotAllowed)
	case errors.Is(err, workflow.ErrNotFound):
		resputil.HTTPError(c, http.StatusNotFound, "document not found", resputil.DocumentNotFound)
	default:
		klog.Errorf("workflow action failed: %v", err)
		resputil.Error(c, "internal error", resputil.NotSpecified)
	}
}
