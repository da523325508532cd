// Package http implements the console's HTTP surface: the server-rendered
// console page, its form actions, the JSON state API, assessment exports, the
// browser log sink and the health probes. Handlers stay thin; binding and
// dispatch live in Console, which both the page and the API share.
//
// # Routes
//
//	GET  /                           console page
//	POST /actions/{action}           analyze | sample | integrations, 303 to /
//	POST /language/{code}            switch language, 303 to /
//	GET  /api/state                  presented view with loading, error and phases
//	POST /api/actions/{action}       same actions, 202 with an AcceptedResponse
//	POST /api/language/{code}        switch language
//	GET  /api/export/assessment.csv  presented view as CSV
//	GET  /api/export/assessment.xlsx presented view as a workbook
//	POST /api/logs                   browser log sink
//
// # Handler Structure
//
// Each handler follows this pattern:
//
//	func (h *APIHandler) Action(w http.ResponseWriter, r *http.Request) {
//	    resp, err := h.console.Run(r, chi.URLParam(r, "action"))
//	    if err != nil {
//	        h.errors.HandleError(w, r, err)
//	        return
//	    }
//	    render.Status(r, http.StatusAccepted)
//	    render.JSON(w, r, resp)
//	}
//
// # Error Handling
//
// Errors are answered with RFC 7807 problem details through the shared
// ErrorHandler. Package sentinels such as operations.ErrInvalidIndustry are
// mapped to API errors here, so the errors package stays free of domain imports:
//
//	{
//	    "type": "/errors/analysis/invalid-industry",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Industry is not supported",
//	    "instance": "/api/actions/sample"
//	}
//
// A submission without a usable file is not an error: the action is reported
// as skipped and the page is left unchanged.
package http
