// Package remote is the HTTP client for the cubvault sync server.
//
// Endpoints:
//   - GET  /api/vault          current encrypted vault, or null
//   - PUT  /api/vault          replace the encrypted vault
//   - POST /api/auth/login     exchange credentials for a bearer token
//   - POST /api/auth/register  create an account
//   - GET  /api/health         liveness
//
// The server only ever sees EncryptedData envelopes. It may return the
// envelope as an object or as a JSON-encoded string; crypto.Envelope
// normalizes both.
package remote
