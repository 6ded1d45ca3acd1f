// Package api implements the catalog's REST endpoints.
//
// Routes:
//
//	GET  /api/v1/cars.json   all cars as a JSON array, in id order
//	GET  /api/v1/cars        same as above
//	GET  /api/v1/cars/{id}   one car
//	POST /api/v1/cars        create a car from {"model", "make", "price"}
//	GET  /healthz            liveness
//
// The /api/v1 routes sit behind the API key middleware when it is enabled.
package api
