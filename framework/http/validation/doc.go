// Package validation checks request input against Laravel-style rule strings.
//
//	errs, err := validation.Request(req, validation.Rules{
//	    "title": "required|min:3|max:120",
//	    "email": "required|email",
//	    "age":   "nullable|integer|gte:18",
//	})
//	if err != nil {
//	    return nil, err
//	}
//	if errs.Any() {
//	    return gohttp.Unprocessable(errs), nil
//	}
//
// Rules run left to right and stop at the first failure of a field.
// "nullable" stops quietly on an empty value and "sometimes" skips a field
// that is absent from the input. Custom rules are added with Extend.
package validation
