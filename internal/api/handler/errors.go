package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"epu-club/backend/internal/service"
	"epu-club/backend/internal/workflow"
	pkgerrors "epu-club/backend/pkg/errors"
	"epu-club/backend/pkg/response"
)

// ── 业务错误码 ──
//
// 服务层错误均归属于 pkg/errors 中的某一分类，这里按分类映射状态码；
// 具体提示语沿用服务层错误的消息。

const (
	codeValidation        = 20001
	codeForbidden         = 20003
	codeNotFound          = 20004
	codeInvalidTransition = 20005
	codeConflict          = 20009
	codeStaleVersion      = 20010
)

// handleServiceError 统一处理业务错误
func handleServiceError(c *gin.Context, err error) {
	var te *workflow.TransitionError
	switch {
	case errors.As(err, &te):
		response.ErrorWithDetails(c, http.StatusConflict, codeInvalidTransition, err.Error(),
			fmt.Sprintf("current_status=%s; event=%s", te.Current, te.Event))
	case errors.Is(err, pkgerrors.ErrInvalidTransition):
		response.Conflict(c, codeInvalidTransition, err.Error())
	case errors.Is(err, pkgerrors.ErrValidation):
		response.BadRequest(c, codeValidation, err.Error())
	case errors.Is(err, pkgerrors.ErrForbidden):
		response.Forbidden(c, codeForbidden, err.Error())
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.NotFound(c, codeNotFound, err.Error())
	case errors.Is(err, service.ErrStaleVersion), errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, codeStaleVersion, err.Error())
	case errors.Is(err, pkgerrors.ErrConflict):
		response.Conflict(c, codeConflict, err.Error())
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
