package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/ml"
	"github.com/Pururutz/Aplikasi-Random-Forest-Ikan/predict"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsReadLimit = 4096
	wsIdleTime  = 10 * time.Minute
	wsWriteWait = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// socketReply 每条输入对应一条回复
type socketReply struct {
	Result    *predict.Result `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Artifacts []string        `json:"missing_artifacts,omitempty"`
}

// handlePredictSocket 输入每次变化时由客户端发送一行特征，服务端立即返回预测
func (h *handlers) handlePredictSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	requestID := GetRequestID(r.Context())
	for {
		conn.SetReadDeadline(time.Now().Add(wsIdleTime))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket closed", zap.String("request_id", requestID), zap.Error(err))
			}
			return
		}

		reply := h.predictMessage(r, payload)
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			h.logger.Debug("websocket write failed", zap.String("request_id", requestID), zap.Error(err))
			return
		}
	}
}

func (h *handlers) predictMessage(r *http.Request, payload []byte) socketReply {
	start := time.Now()
	row := ml.DefaultFeatureRow()
	if err := json.Unmarshal(payload, &row); err != nil {
		err = errors.Join(ml.ErrInvalidFeature, err)
		h.record(sourceSocket, start, nil, err)
		return socketReply{Error: err.Error()}
	}
	result, err := h.predictor.Predict(r.Context(), row)
	h.record(sourceSocket, start, result, err)
	if err != nil {
		h.logPredictError(r, err)
		return socketReply{Error: err.Error(), Artifacts: missingArtifacts(err)}
	}
	return socketReply{Result: result}
}
