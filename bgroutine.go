/*
	RegionTiles, renders block game worlds into map tiles
	Copyright (C) 2022 Maxim Zhuchkov

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU Affero General Public License as published
	by the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU Affero General Public License for more details.

	You should have received a copy of the GNU Affero General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.

	Contact me via mail: q3.max.2011@yandex.ru or Discord: MaX#6717
*/

package main

import (
	"log"
	"sync"
)

func startBackgroundRoutine(name string, workfn func(<-chan struct{})) func() {
	log.Printf("Starting %s routine", name)
	closechan := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		workfn(closechan)
	}()
	return sync.OnceFunc(func() {
		log.Printf("Shutting down %s routine", name)
		closechan <- struct{}{}
		wg.Wait()
		log.Printf("Routine %s done", name)
	})
}
