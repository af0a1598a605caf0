package borrows

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 学生側エンドポイント。申請と自分の貸出/罰金の参照。
func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/borrows", h.Request)
	r.GET("/borrows/:borrow_ulid", h.Get)
	r.GET("/students/:student_number/borrows", h.ListByStudent)
	r.GET("/students/:student_number/fines", h.Fines)
	r.GET("/students/:student_number/can-borrow", h.CanBorrow)
}

// RegisterAdminRoutes: 司書側。一覧と状態遷移の操作。
func RegisterAdminRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/borrows", h.List)
	r.POST("/borrows/:borrow_ulid/approve", h.Approve)
	r.POST("/borrows/:borrow_ulid/reject", h.Reject)
	r.POST("/borrows/:borrow_ulid/return", h.Return)
	r.POST("/borrows/:borrow_ulid/lost", h.MarkLost)
	r.POST("/borrows/:borrow_ulid/fine-paid", h.MarkFinePaid)
	r.POST("/borrows/:borrow_ulid/remind", h.Remind)
}

// ---------- handlers ----------

func (h *Handler) Request(c *gin.Context) {
	var req CreateBorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Request(c.Request.Context(), req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.Header("Location", "/borrows/"+res.BorrowULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("borrow_ulid"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Approve(c *gin.Context) {
	res, err := h.svc.Approve(c.Request.Context(), c.Param("borrow_ulid"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Reject(c *gin.Context) {
	var req RejectRequest
	// ボディ省略可（理由なし拒否）
	_ = c.ShouldBindJSON(&req)
	res, err := h.svc.Reject(c.Request.Context(), c.Param("borrow_ulid"), req.Reason)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Return(c *gin.Context) {
	res, err := h.svc.Return(c.Request.Context(), c.Param("borrow_ulid"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkLost(c *gin.Context) {
	var req MarkLostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing penalty"))
		return
	}
	res, err := h.svc.MarkLost(c.Request.Context(), c.Param("borrow_ulid"), req.Penalty)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) MarkFinePaid(c *gin.Context) {
	res, err := h.svc.MarkFinePaid(c.Request.Context(), c.Param("borrow_ulid"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Remind(c *gin.Context) {
	if err := h.svc.Remind(c.Request.Context(), c.Param("borrow_ulid")); err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reminder sent"})
}

func (h *Handler) List(c *gin.Context) {
	f := ListFilter{
		Limit:  parseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	if v := c.Query("student_number"); v != "" {
		f.StudentNumber = &v
	}
	if v := c.Query("book_ulid"); v != "" {
		f.BookULID = &v
	}
	if v := c.Query("status"); v != "" {
		f.Status = &v
	}
	items, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (h *Handler) ListByStudent(c *gin.Context) {
	items, err := h.svc.ListByStudent(c.Request.Context(), c.Param("student_number"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) Fines(c *gin.Context) {
	res, err := h.svc.TotalUnpaidFines(c.Request.Context(), c.Param("student_number"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) CanBorrow(c *gin.Context) {
	res, err := h.svc.TotalUnpaidFines(c.Request.Context(), c.Param("student_number"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"student_number": res.StudentNumber, "can_borrow": res.CanBorrow})
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errorBody(code, msg)
}
