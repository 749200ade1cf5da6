// Package loader reads flow and rule definitions from YAML or JSON files.
//
// A flow file looks like:
//
//	name: checkout
//	steps:
//	  - name: login
//	    curl: curl -X POST https://api.example.com/login -d '{"user":"demo"}'
//	    extract:
//	      - path: data.token
//	        variable: token
//	  - name: cart
//	    request:
//	      url: https://api.example.com/cart
//	      headers:
//	        Authorization: Bearer {{token}}
//	    rules:
//	      - type: status_code
//	        config:
//	          expectedStatus: 200
//
// Unknown keys are rejected and every structural problem in a file is
// reported at once.
package loader
