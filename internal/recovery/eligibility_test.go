package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEligibleExclusions(t *testing.T) {
	t.Parallel()

	page := mustPage(t, `<form>
		<input type="password" name="pw">
		<input type="hidden" name="token">
		<input type="file" name="upload">
		<input type="text" name="noauto" autocomplete="off">
		<input type="text" name="optout" data-autorecovery="false">
		<input type="text" name="ok">
		<textarea name="msg"></textarea>
		<select name="color"><option value="red">Red</option></select>
	</form>`, "https://example.com/")

	controls := onlyForm(t, page).Controls()
	require.Len(t, controls, 8)

	assert.False(t, Eligible(controls[0]), "password input")
	assert.False(t, Eligible(controls[1]), "hidden input")
	assert.False(t, Eligible(controls[2]), "file input")
	assert.False(t, Eligible(controls[3]), "autocomplete off")
	assert.False(t, Eligible(controls[4]), "data-autorecovery false")
	assert.True(t, Eligible(controls[5]), "plain text input")
	assert.True(t, Eligible(controls[6]), "textarea")
	assert.True(t, Eligible(controls[7]), "select")
}

func TestEligibleAutocompleteCase(t *testing.T) {
	t.Parallel()

	page := mustPage(t, `<form>
		<input name="a" autocomplete="OFF">
		<input name="b" autocomplete="name">
	</form>`, "https://example.com/")

	controls := onlyForm(t, page).Controls()
	assert.False(t, Eligible(controls[0]), "autocomplete matching is case-insensitive")
	assert.True(t, Eligible(controls[1]), "other autocomplete values stay eligible")
}

func TestEligibleCheckboxAndRadio(t *testing.T) {
	t.Parallel()

	page := mustPage(t, `<form>
		<input type="checkbox" name="opt" value="yes">
		<input type="radio" name="color" value="red">
	</form>`, "https://example.com/")

	for _, c := range onlyForm(t, page).Controls() {
		assert.True(t, Eligible(c), c.Attr("name"))
	}
}

func TestFieldKeyDerivation(t *testing.T) {
	t.Parallel()

	page := mustPage(t, `<form>
		<input name="named" id="alsoid">
		<input id="idonly">
		<input>
		<textarea></textarea>
		<input type="checkbox" name="colors" value="red">
		<input type="checkbox" name="colors" value="blue">
		<input type="radio" id="anon-radio" value="x">
	</form>`, "https://example.com/")

	controls := onlyForm(t, page).Controls()
	assert.Equal(t, "named", FieldKey(controls[0]), "name wins over id")
	assert.Equal(t, "idonly", FieldKey(controls[1]))
	assert.Equal(t, "input_2", FieldKey(controls[2]), "synthesized tag_index fallback")
	assert.Equal(t, "textarea_3", FieldKey(controls[3]))

	// Same-named mutually exclusive controls must not collide.
	assert.Equal(t, "colors::red", FieldKey(controls[4]))
	assert.Equal(t, "colors::blue", FieldKey(controls[5]))

	// A checkable control without a name uses the plain id path.
	assert.Equal(t, "anon-radio", FieldKey(controls[6]))
}
