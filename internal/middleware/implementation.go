package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/clauselens/clauselens/internal/config"
	"github.com/google/uuid"
)

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	if req == nil {
		re.badRequest.httpCode = http.StatusBadRequest
		re.badRequest.errorMessage = "request is empty"
		re.badRequest.isBadRequest = true
		return re
	}

	trace := req.Header.Get("X-Trace-Id")
	if trace == "" {
		trace = uuid.NewString()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	req.Header.Set("X-Trace-Id", trace)
	re.req = req.WithContext(ctx)
	return re
}

func rateLimiter(re requestResponseStruct) requestResponseStruct {
	if re.badRequest.isBadRequest {
		return re
	}

	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !limiterInstance.GetLimiter(ip).Allow() {
		re.logger.Error("rate limit exceeded", "ip", ip)
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "rate limit exceeded",
		}
	}
	return re
}
