package main

import "github.com/vfxbuild/sdkconf/cmd/sdkconf/internal"

func main() {
	internal.Execute()
}
