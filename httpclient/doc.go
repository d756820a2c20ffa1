// Package httpclient is the outbound HTTP client used by the speech
// backends. It adds API-key auth, status classification and optional
// retry and circuit breaking on top of net/http.
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL:        "https://eastus.stt.speech.microsoft.com",
//	    Auth:           httpclient.APIKeyAuthHeader(key, "Ocp-Apim-Subscription-Key"),
//	    Retry:          httpclient.DefaultRetryConfig(),
//	    CircuitBreaker: httpclient.DefaultCircuitBreakerConfig("azure"),
//	})
//
//	resp, err := client.Do(ctx, httpclient.Request{
//	    Method: http.MethodPost,
//	    Path:   "/speech/recognition/conversation/cognitiveservices/v1",
//	    Query:  map[string]string{"language": "en-US", "format": "detailed"},
//	    Body:   wavBytes,
//	})
package httpclient
