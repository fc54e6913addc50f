package wfe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/letsencrypt/pkider/ca"
	"github.com/letsencrypt/pkider/core"
	"github.com/letsencrypt/pkider/db"
)

const (
	directoryPath    = "/dir"
	rootCertPath     = "/roots/0"
	intermediatePath = "/intermediates/0"
	certPath         = "/certificates/"
	signCSRPath      = "/sign-csr"
	verifyPath       = "/verify"
	metricsPath      = "/metrics"

	// maxBodyBytes bounds POSTed PEM documents.
	maxBodyBytes = 64 * 1024

	pemChainContentType = "application/pem-certificate-chain"
	requestIDHeader     = "X-Request-Id"
)

type requestEvent struct {
	RequestID  string `json:",omitempty"`
	ClientAddr string `json:",omitempty"`
	Endpoint   string `json:",omitempty"`
	Method     string `json:",omitempty"`
	UserAgent  string `json:",omitempty"`
	Error      string `json:",omitempty"`
}

type wfeHandlerFunc func(context.Context, *requestEvent, http.ResponseWriter, *http.Request)

func (f wfeHandlerFunc) ServeHTTP(e *requestEvent, w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f(ctx, e, w, r)
}

type wfeHandler interface {
	ServeHTTP(e *requestEvent, w http.ResponseWriter, r *http.Request)
}

type topHandler struct {
	log *zap.Logger
	wfe wfeHandler
}

func (th *topHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rEvent := &requestEvent{
		RequestID:  newRequestID(),
		ClientAddr: r.RemoteAddr,
		Method:     r.Method,
		UserAgent:  r.Header.Get("User-Agent"),
	}

	w.Header().Set(requestIDHeader, rEvent.RequestID)
	th.wfe.ServeHTTP(rEvent, w, r)

	th.log.Info("Request",
		zap.String("requestID", rEvent.RequestID),
		zap.String("endpoint", rEvent.Endpoint),
		zap.String("method", rEvent.Method),
		zap.String("clientAddr", rEvent.ClientAddr),
		zap.String("userAgent", rEvent.UserAgent),
		zap.String("error", rEvent.Error))
}

type WebFrontEndImpl struct {
	log      *zap.Logger
	ca       *ca.CAImpl
	db       db.Storage
	gatherer prometheus.Gatherer
}

// New returns a front end serving certificates from ca and db. Metrics are
// read from gatherer.
func New(log *zap.Logger, ca *ca.CAImpl, db db.Storage, gatherer prometheus.Gatherer) WebFrontEndImpl {
	return WebFrontEndImpl{
		log:      log,
		ca:       ca,
		db:       db,
		gatherer: gatherer,
	}
}

func (wfe *WebFrontEndImpl) HandleFunc(
	mux *http.ServeMux,
	pattern string,
	handler wfeHandlerFunc,
	methods ...string) {

	methodsMap := make(map[string]bool)
	for _, m := range methods {
		methodsMap[m] = true
	}

	if methodsMap["GET"] && !methodsMap["HEAD"] {
		// Allow HEAD for any resource that allows GET
		methods = append(methods, "HEAD")
		methodsMap["HEAD"] = true
	}

	methodsStr := strings.Join(methods, ", ")
	defaultHandler := http.StripPrefix(pattern,
		&topHandler{
			log: wfe.log,
			wfe: wfeHandlerFunc(func(ctx context.Context, logEvent *requestEvent, response http.ResponseWriter, request *http.Request) {
				logEvent.Endpoint = pattern
				if request.URL != nil {
					logEvent.Endpoint = path.Join(logEvent.Endpoint, request.URL.Path)
				}

				addNoCacheHeader(response)

				if !methodsMap[request.Method] {
					response.Header().Set("Allow", methodsStr)
					wfe.sendError(MethodNotAllowed(), response, logEvent)
					return
				}

				ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
				handler(ctx, logEvent, response, request)
				cancel()
			},
			)})
	mux.Handle(pattern, defaultHandler)
}

func (wfe *WebFrontEndImpl) sendError(prob *ProblemDetails, response http.ResponseWriter, logEvent *requestEvent) {
	problemDoc, err := marshalIndent(prob)
	if err != nil {
		problemDoc = []byte("{\"detail\": \"Problem marshalling error message.\"}")
	}
	if logEvent != nil {
		logEvent.Error = prob.Error()
	}

	response.Header().Set("Content-Type", "application/problem+json")
	response.WriteHeader(prob.HTTPStatus)
	_, _ = response.Write(problemDoc)
}

func (wfe *WebFrontEndImpl) Handler() http.Handler {
	m := http.NewServeMux()
	wfe.HandleFunc(m, directoryPath, wfe.Directory, "GET")
	wfe.HandleFunc(m, rootCertPath, wfe.RootCert, "GET")
	wfe.HandleFunc(m, intermediatePath, wfe.IntermediateCert, "GET")
	wfe.HandleFunc(m, certPath, wfe.Certificate, "GET")
	wfe.HandleFunc(m, signCSRPath, wfe.SignCSR, "POST")
	wfe.HandleFunc(m, verifyPath, wfe.Verify, "POST")
	m.Handle(metricsPath, promhttp.HandlerFor(wfe.gatherer, promhttp.HandlerOpts{}))
	return m
}

func (wfe *WebFrontEndImpl) Directory(
	ctx context.Context,
	logEvent *requestEvent,
	response http.ResponseWriter,
	request *http.Request) {

	directoryEndpoints := map[string]string{
		"root":         rootCertPath,
		"intermediate": intermediatePath,
		"signCSR":      signCSRPath,
		"verify":       verifyPath,
		"metrics":      metricsPath,
	}

	relDir, err := wfe.relativeDirectory(request, directoryEndpoints)
	if err != nil {
		wfe.sendError(InternalErrorProblem("unable to create directory"), response, logEvent)
		return
	}

	response.Header().Set("Content-Type", "application/json")
	_, _ = response.Write(relDir)
}

func (wfe *WebFrontEndImpl) RootCert(
	ctx context.Context,
	logEvent *requestEvent,
	response http.ResponseWriter,
	request *http.Request) {

	wfe.writePEM(response, wfe.ca.Root().PEM())
}

func (wfe *WebFrontEndImpl) IntermediateCert(
	ctx context.Context,
	logEvent *requestEvent,
	response http.ResponseWriter,
	request *http.Request) {

	wfe.writePEM(response, wfe.ca.Intermediate().PEM())
}

// Certificate serves the chain of a stored certificate, addressed by its hex
// serial number.
func (wfe *WebFrontEndImpl) Certificate(
	ctx context.Context,
	logEvent *requestEvent,
	response http.ResponseWriter,
	request *http.Request) {

	id := strings.TrimPrefix(request.URL.Path, "/")
	cert := wfe.db.GetCertificateByID(id)
	if cert == nil {
		wfe.sendError(NotFoundProblem(fmt.Sprintf("no certificate with ID %q", id)), response, logEvent)
		return
	}

	wfe.writePEM(response, cert.Chain())
}

// SignCSR issues a certificate for a PEM CSR and answers with the PEM chain.
func (wfe *WebFrontEndImpl) SignCSR(
	ctx context.Context,
	logEvent *requestEvent,
	response http.ResponseWriter,
	request *http.Request) {

	body, prob := readBody(response, request)
	if prob != nil {
		wfe.sendError(prob, response, logEvent)
		return
	}
	csrDER, err := core.DecodePEM(body, core.CSRLabel)
	if err != nil {
		wfe.sendError(MalformedProblem(err.Error()), response, logEvent)
		return
	}

	issued, err := wfe.ca.IssueCertificate(csrDER)
	if errors.Is(err, ca.ErrRejectedCSR) {
		wfe.sendError(BadCSRProblem(err.Error()), response, logEvent)
		return
	} else if err != nil {
		wfe.log.Error("Issuing certificate", zap.String("requestID", logEvent.RequestID), zap.Error(err))
		wfe.sendError(InternalErrorProblem("unable to issue certificate"), response, logEvent)
		return
	}

	response.Header().Set("Location", wfe.relativeEndpoint(request, certPath+issued.ID))
	response.Header().Set("Content-Type", pemChainContentType)
	response.WriteHeader(http.StatusCreated)
	_, _ = response.Write(issued.Chain())
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// Verify checks a PEM certificate against the CA at the current time.
func (wfe *WebFrontEndImpl) Verify(
	ctx context.Context,
	logEvent *requestEvent,
	response http.ResponseWriter,
	request *http.Request) {

	body, prob := readBody(response, request)
	if prob != nil {
		wfe.sendError(prob, response, logEvent)
		return
	}
	certDER, err := core.DecodePEM(body, core.CertificateLabel)
	if err != nil {
		wfe.sendError(MalformedProblem(err.Error()), response, logEvent)
		return
	}

	ok, err := wfe.ca.VerifyCertificate(certDER)
	if err != nil {
		wfe.sendError(MalformedProblem(err.Error()), response, logEvent)
		return
	}

	doc, err := marshalIndent(verifyResponse{Valid: ok})
	if err != nil {
		wfe.sendError(InternalErrorProblem("unable to marshal response"), response, logEvent)
		return
	}
	response.Header().Set("Content-Type", "application/json")
	_, _ = response.Write(doc)
}

func readBody(response http.ResponseWriter, request *http.Request) ([]byte, *ProblemDetails) {
	if request.Body == nil {
		return nil, MalformedProblem("no body on POST")
	}
	body, err := io.ReadAll(http.MaxBytesReader(response, request.Body, maxBodyBytes))
	if err != nil {
		return nil, MalformedProblem("unable to read request body")
	}
	if len(body) == 0 {
		return nil, MalformedProblem("empty body on POST")
	}
	return body, nil
}

func (wfe *WebFrontEndImpl) writePEM(response http.ResponseWriter, pem []byte) {
	response.Header().Set("Content-Type", pemChainContentType)
	_, _ = response.Write(pem)
}

func (wfe *WebFrontEndImpl) relativeDirectory(request *http.Request, directory map[string]string) ([]byte, error) {
	// Create an empty map sized equal to the provided directory to store the
	// relative-ized result
	relativeDir := make(map[string]string, len(directory))

	for k, v := range directory {
		relativeDir[k] = wfe.relativeEndpoint(request, v)
	}

	directoryJSON, err := marshalIndent(relativeDir)
	// This should never happen since we are just marshalling known strings
	if err != nil {
		return nil, err
	}
	return directoryJSON, nil
}

func (wfe *WebFrontEndImpl) relativeEndpoint(request *http.Request, endpoint string) string {
	proto := "http"
	host := request.Host

	// If the request was received via TLS, use `https://` for the protocol
	if request.TLS != nil {
		proto = "https"
	}

	// Allow upstream proxies  to specify the forwarded protocol. Allow this value
	// to override our own guess.
	if specifiedProto := request.Header.Get("X-Forwarded-Proto"); specifiedProto != "" {
		proto = specifiedProto
	}

	// Default to "localhost" when no request.Host is provided. Otherwise requests
	// with an empty `Host` produce results like `http:///certificates/1`
	if request.Host == "" {
		host = "localhost"
	}

	resultUrl := url.URL{Scheme: proto, Host: host, Path: endpoint}
	return resultUrl.String()
}

func addNoCacheHeader(response http.ResponseWriter) {
	response.Header().Add("Cache-Control", "public, max-age=0, no-cache")
}

func marshalIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "   ")
}
