// Package transport contains the two interchangeable backends a resolved
// entity can execute against.
//
// REST maps each logical operation onto the HTTP wire conventions of the
// layer (GET {base} / GET {base}/:id / GET {base}/search, POST, PUT,
// DELETE with JSON bodies) and converts non-2xx responses into
// GenericError values carrying an HTTP_<status> code.
//
// ServerActions invokes caller-supplied functions in-process. WrapAction
// adds an optional validate/transform pipeline around any single action;
// a validation failure prevents the wrapped call entirely.
package transport
