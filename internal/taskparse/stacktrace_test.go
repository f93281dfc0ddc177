package taskparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStackTrace_NodeJS(t *testing.T) {
	raw := "TypeError: Cannot read property 'id' of undefined\n" +
		"    at getUser (src/services/user.js:42:10)\n" +
		"    at processRequest (src/handlers/request.js:17:5)\n"

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 2)
	assert.Equal(t, "src/services/user.js", frames[0].File)
	assert.Equal(t, 42, frames[0].Line)
	assert.Equal(t, 10, frames[0].Column)
	assert.Equal(t, "getUser", frames[0].Function)
	assert.Equal(t, "Cannot read property 'id' of undefined", frames[0].Message)
	assert.Equal(t, "src/handlers/request.js", frames[1].File)
}

func TestParseStackTrace_Python(t *testing.T) {
	raw := `Traceback (most recent call last):
  File "app/views.py", line 88, in handle
    raise ValueError("bad input")
ValueError: bad input`

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, "app/views.py", frames[0].File)
	assert.Equal(t, 88, frames[0].Line)
	assert.Equal(t, "handle", frames[0].Function)
}

func TestParseStackTrace_Go(t *testing.T) {
	raw := "goroutine 1 [running]:\n" +
		"main.handler()\n" +
		"\t/app/internal/handler.go:55 +0x1a\n"

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, "/app/internal/handler.go", frames[0].File)
	assert.Equal(t, 55, frames[0].Line)
}

func TestParseStackTrace_Ruby(t *testing.T) {
	raw := "app/models/user.rb:12:in `save'\n" +
		"from app/controllers/users_controller.rb:30:in `create'\n"

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 2)
	assert.Equal(t, "app/models/user.rb", frames[0].File)
	assert.Equal(t, "save", frames[0].Function)
}

func TestParseStackTrace_PHP(t *testing.T) {
	raw := "#0 /app/PaymentController.php(40): PaymentController->charge()\n" +
		"#1 {main}\n"

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, "/app/PaymentController.php", frames[0].File)
	assert.Equal(t, 40, frames[0].Line)
}

func TestParseStackTrace_JVM(t *testing.T) {
	raw := "java.lang.NullPointerException\n" +
		"\tat com.example.service.UserService.findUser(UserService.java:77)\n"

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, "UserService.java", frames[0].File)
	assert.Equal(t, 77, frames[0].Line)
	assert.Equal(t, "com.example.service.UserService.findUser", frames[0].Function)
}

func TestParseStackTrace_UnrecognizedFormatReturnsNil(t *testing.T) {
	frames := ParseStackTrace("this is not a stack trace at all, just prose.")
	assert.Nil(t, frames)
}

func TestParseStackTrace_EmptyInput(t *testing.T) {
	assert.Nil(t, ParseStackTrace(""))
}

func TestParseStackTrace_SniffsFormatOnceDoesNotMixRuntimes(t *testing.T) {
	// A Python-looking line embedded in an otherwise Node.js trace
	// should not be parsed once Node.js is the sniffed format.
	raw := "    at handler (src/index.js:1:1)\n" +
		`  File "noise.py", line 2, in nothing` + "\n"

	frames := ParseStackTrace(raw)
	require.Len(t, frames, 1)
	assert.Equal(t, "src/index.js", frames[0].File)
}
