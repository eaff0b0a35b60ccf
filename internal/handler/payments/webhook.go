package payments

import (
	"log"
	"net/http"
	"strconv"

	"nutriadmin/internal/cache"
	"nutriadmin/internal/database"
	"nutriadmin/internal/dto"
	"nutriadmin/internal/model"
	"nutriadmin/internal/payment"

	"github.com/labstack/echo/v4"
)

const (
	headerSignature = "x-signature"
	headerRequestID = "x-request-id"
	topicPayment    = "payment"
)

// notificationTopic 通知可能以 body 或 query string 傳送
func notificationTopic(c echo.Context, n dto.WebhookNotification) (string, string) {
	topic := n.Type
	if topic == "" {
		topic = c.QueryParam("type")
	}
	if topic == "" {
		topic = c.QueryParam("topic")
	}
	dataID := n.Data.ID
	if dataID == "" {
		dataID = c.QueryParam("data.id")
	}
	if dataID == "" {
		dataID = c.QueryParam("id")
	}
	return topic, dataID
}

// WebhookHandler 金流通知
// @Summary     Payment webhook
// @Description 設定 secret 時驗證 x-signature；只處理 payment 主題，狀態只會從 pending 轉換一次
// @Tags        payments
// @Accept      json
// @Produce     json
// @Param       body body     dto.WebhookNotification false "通知"
// @Success     200  {object} dto.MessageResponse
// @Failure     400  {object} dto.HTTPError
// @Failure     401  {object} dto.HTTPError
// @Failure     502  {object} dto.HTTPError
// @Router      /payments/webhook [post]
func WebhookHandler(db database.DB, rdb cache.Cache, gw payment.Gateway, secret string) echo.HandlerFunc {
	return func(c echo.Context) error {
		var n dto.WebhookNotification
		// 部分通知沒有 body，只帶 query string
		_ = c.Bind(&n)
		topic, dataID := notificationTopic(c, n)

		if secret != "" {
			req := c.Request()
			if !payment.VerifySignature(secret, req.Header.Get(headerSignature), req.Header.Get(headerRequestID), dataID) {
				log.Printf("webhook 簽章錯誤 (topic=%s id=%s)", topic, dataID)
				return c.JSON(http.StatusUnauthorized, dto.HTTPError{Message: "invalid signature"})
			}
		}
		if topic != topicPayment {
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: "ignored"})
		}
		if dataID == "" {
			return c.JSON(http.StatusBadRequest, dto.HTTPError{Message: "missing payment id"})
		}

		ctx := c.Request().Context()
		p, err := gw.GetPayment(ctx, dataID)
		if err != nil {
			log.Printf("查詢付款 %s 失敗: %v", dataID, err)
			return c.JSON(http.StatusBadGateway, dto.HTTPError{Message: "cannot fetch payment"})
		}
		pagoID, err := strconv.Atoi(p.ExternalReference)
		if err != nil {
			log.Printf("付款 %s 的 external_reference 無效: %q", p.ID, p.ExternalReference)
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: "ignored"})
		}
		estado := payment.MapStatus(p.Status)
		if estado == model.PagoPending {
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: "pending"})
		}

		var pago *model.Pago
		applied := false
		err = withTx(ctx, db, func(q database.Querier) error {
			var err error
			if pago, err = getPago(ctx, q, pagoID); err != nil {
				return err
			}
			if applied, err = updatePagoStatusIfCurrent(ctx, q, pagoID, model.PagoPending, estado, p.ID); err != nil || !applied {
				return err
			}
			if estado != model.PagoApproved {
				return nil
			}
			switch pago.Tipo {
			case model.PagoCurso:
				granted, err := grantCursoAccess(ctx, q, pago.UserID, pago.ReferenciaID, nil)
				if err != nil || !granted {
					return err
				}
				return createInscripcion(ctx, q, pago.UserID, pago.ReferenciaID, &pago.ID)
			case model.PagoCuota:
				return setCuotaUsuarioEstado(ctx, q, pago.ReferenciaID, pago.UserID, model.CuotaPagado)
			}
			return nil
		})
		if database.IsNotFound(err) {
			log.Printf("付款 %s 對應的 pago %d 不存在", p.ID, pagoID)
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: "ignored"})
		}
		if err != nil {
			log.Printf("處理付款 %s 失敗: %v", p.ID, err)
			return c.JSON(http.StatusInternalServerError, dto.HTTPError{Message: "cannot apply payment"})
		}
		if !applied {
			return c.JSON(http.StatusOK, dto.MessageResponse{Message: "already processed"})
		}

		log.Printf("pago %d (%s %d) -> %s", pago.ID, pago.Tipo, pago.ReferenciaID, estado)
		if estado == model.PagoApproved && rdb != nil {
			if err := rdb.Del(ctx, cache.DashboardKey).Err(); err != nil {
				log.Printf("清除儀表板快取失敗: %v", err)
			}
		}
		return c.JSON(http.StatusOK, dto.MessageResponse{Message: estado})
	}
}
