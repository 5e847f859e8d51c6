// widget serves and evaluates the PlataPay embeddable widgets.
package main

import (
	"github.com/platapay/widget/cmd/widget/cmd"
)

func main() {
	cmd.Execute()
}
