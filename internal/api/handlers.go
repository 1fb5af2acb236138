package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"orderdesk/internal"
	"orderdesk/internal/extract"
	"orderdesk/internal/intake"
	"orderdesk/internal/order"
	"orderdesk/internal/roster"
	"orderdesk/internal/util"
)

const maxUpload = 10 << 20

func (s *Server) listItems(c *gin.Context) {
	items := s.catalog.Index().Suggest(c.Query("q"), c.Query("category"))
	success(c, http.StatusOK, gin.H{"items": items, "categories": s.catalog.Index().Categories()})
}

func (s *Server) resolveItem(c *gin.Context) {
	item, ok := s.catalog.Index().Resolve(c.Query("q"), c.Query("category"))
	if !ok {
		fail(c, http.StatusNotFound, "no catalog item matches")
		return
	}
	success(c, http.StatusOK, item)
}

func (s *Server) reloadCatalog(c *gin.Context) {
	n := s.catalog.Load(c.Request.Context())
	success(c, http.StatusOK, gin.H{"items": n})
}

func (s *Server) listCustomers(c *gin.Context) {
	sess := session(c)
	branch := util.FirstNonEmpty(c.Query("branch"), sess.BranchID)
	salesPerson := util.FirstNonEmpty(c.Query("salesPerson"), sess.Name)
	dir := s.customers.Directory(s.customers.Load(c.Request.Context(), branch, salesPerson), branch, salesPerson)
	success(c, http.StatusOK, dir.Search(c.Query("q")))
}

type createCustomerRequest struct {
	OwnerID  string               `json:"ownerId"`
	FormData internal.OrderHeader `json:"formData"`
}

func (s *Server) createCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	sess := session(c)
	if req.FormData.Branch == "" {
		req.FormData.Branch = sess.BranchID
	}
	created, err := s.customers.Create(c.Request.Context(), util.FirstNonEmpty(req.OwnerID, sess.SalesPersonID), req.FormData)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusCreated, created)
}

func (s *Server) listSalesPersons(c *gin.Context) {
	branch := util.FirstNonEmpty(c.Query("branch"), session(c).BranchID)
	success(c, http.StatusOK, s.customers.SalesPersons(c.Request.Context(), branch))
}

type submitOrderRequest struct {
	Session  *order.Session       `json:"session"`
	FormData internal.OrderHeader `json:"formData"`
	Items    []internal.LineItem  `json:"items"`
}

func (s *Server) submitOrder(c *gin.Context) {
	var req submitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	sess := session(c)
	if req.Session != nil {
		sess = *req.Session
	}

	draft, err := order.NewDraft(req.FormData, req.Items...)
	if err != nil {
		s.respondError(c, err)
		return
	}
	res, err := s.orders.Submit(c.Request.Context(), sess, draft)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

type parseOrderRequest struct {
	Text string `json:"text"`
}

// parseOrder turns pasted order text into a draft for the order form.
func (s *Server) parseOrder(c *gin.Context) {
	var req parseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		fail(c, http.StatusBadRequest, "text is required")
		return
	}

	known, err := s.store.ListCustomers(c.Request.Context())
	if err != nil {
		s.errorLog.Println("orders parse:", &internal.RemoteReadError{Op: "customers", Err: err})
	}
	lines := extract.FromText(req.Text, internal.SourcePaste)
	draft := intake.BuildDraft(s.catalog.Index(), known, lines, extract.ParseHints(req.Text))
	success(c, http.StatusOK, draft)
}

func (s *Server) orderHistory(c *gin.Context) {
	spID := util.FirstNonEmpty(c.Query("salesPersonId"), session(c).SalesPersonID)
	entries, err := s.orders.History(c.Request.Context(), spID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, entries)
}

func (s *Server) importItems(c *gin.Context) {
	blob, xlsx, ok := readUpload(c)
	if !ok {
		return
	}
	var (
		res internal.ImportResult
		err error
	)
	if xlsx {
		res, err = s.importer.ImportItemsXLSX(c.Request.Context(), blob)
	} else {
		res, err = s.importer.ImportItemsCSV(c.Request.Context(), blob)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	if res.Committed > 0 {
		s.catalog.Load(c.Request.Context())
	}
	success(c, http.StatusOK, res)
}

func (s *Server) importCustomers(c *gin.Context) {
	blob, xlsx, ok := readUpload(c)
	if !ok {
		return
	}
	users, err := s.store.ListSalesPersons(c.Request.Context())
	if err != nil {
		s.respondError(c, &internal.RemoteReadError{Op: "app_users", Err: err})
		return
	}
	branch := c.PostForm("branch")
	if branch == "" {
		branch = roster.GhostBranch(session(c).BranchID)
	}

	var res internal.ImportResult
	if xlsx {
		res, err = s.importer.ImportCustomersXLSX(c.Request.Context(), blob, users, branch)
	} else {
		res, err = s.importer.ImportCustomersCSV(c.Request.Context(), blob, users, branch)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	success(c, http.StatusOK, res)
}

// readUpload reads the multipart "file" field and reports whether it is
// an xlsx workbook.
func readUpload(c *gin.Context) ([]byte, bool, bool) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "file is required")
		return nil, false, false
	}
	if fh.Size > maxUpload {
		fail(c, http.StatusRequestEntityTooLarge, "file too large")
		return nil, false, false
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, false, false
	}
	defer f.Close()
	blob, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return nil, false, false
	}
	return blob, strings.EqualFold(filepath.Ext(fh.Filename), ".xlsx"), true
}
