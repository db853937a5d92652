// Package httpapi exposes compilation, search execution and saved searches
// over HTTP.
//
// Routes:
//
//	POST   /compile/{kind}         criteria JSON -> joins, WHERE clause, params, SQL
//	POST   /search/{kind}          criteria JSON -> matching ids (?limit=N)
//	GET    /searches               saved searches
//	POST   /searches               save {name, entity, criteria}
//	GET    /searches/{name}        one saved search
//	DELETE /searches/{name}        delete a saved search
//	POST   /searches/{name}/run    run a saved search (?limit=N)
//
// Every response body is {"status": "ok", "data": ...} or
// {"status": "error", "error": {"code": ..., "message": ...}}. Criteria
// errors are the client's fault and map to 400; everything else is 500.
package httpapi
